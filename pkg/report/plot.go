package report

import (
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

// Plotter saves PNG charts under Dir. A zero Plotter is disabled: every
// method returns an empty path and no error.
type Plotter struct {
	Dir    string
	Width  vg.Length // default 8 inches
	Height vg.Length // default 4 inches
}

// Series is one named line of a line chart.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

func (p Plotter) Enabled() bool { return p.Dir != "" }

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = xLabel
	pl.Y.Label.Text = yLabel
	return pl
}

func (p Plotter) save(pl *plot.Plot, name string) (string, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", core.IOError("report.plot", err)
	}
	w, h := p.Width, p.Height
	if w == 0 {
		w = 8 * vg.Inch
	}
	if h == 0 {
		h = 4 * vg.Inch
	}
	path := filepath.Join(p.Dir, name)
	if err := pl.Save(w, h, path); err != nil {
		return "", core.IOError("report.plot", err)
	}
	return path, nil
}

// Histogram plots the finite values in bins buckets.
func (p Plotter) Histogram(name, title, xLabel string, values []float64, bins int) (string, error) {
	if !p.Enabled() || len(values) == 0 {
		return "", nil
	}
	pl := newPlot(title, xLabel, "count")
	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return "", core.ParseError("report.plot", "histogram %s: %v", name, err)
	}
	pl.Add(h)
	return p.save(pl, name)
}

// Bars plots one bar per label.
func (p Plotter) Bars(name, title, yLabel string, labels []string, values []float64) (string, error) {
	if !p.Enabled() || len(values) == 0 {
		return "", nil
	}
	pl := newPlot(title, "", yLabel)
	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(20))
	if err != nil {
		return "", core.ParseError("report.plot", "bars %s: %v", name, err)
	}
	bars.Color = color.RGBA{R: 50, G: 90, B: 200, A: 255}
	pl.Add(bars)
	pl.NominalX(labels...)
	return p.save(pl, name)
}

// Scatter plots y against x.
func (p Plotter) Scatter(name, title, xLabel, yLabel string, x, y []float64) (string, error) {
	if !p.Enabled() || len(x) == 0 {
		return "", nil
	}
	pl := newPlot(title, xLabel, yLabel)
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X, pts[i].Y = x[i], y[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return "", core.ParseError("report.plot", "scatter %s: %v", name, err)
	}
	s.Color = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	pl.Add(s)
	return p.save(pl, name)
}

// Lines draws each series with its own colour and legend entry.
func (p Plotter) Lines(name, title, xLabel, yLabel string, series ...Series) (string, error) {
	if !p.Enabled() || len(series) == 0 {
		return "", nil
	}
	pl := newPlot(title, xLabel, yLabel)
	if err := addSeries(pl, series); err != nil {
		return "", core.ParseError("report.plot", "lines %s: %v", name, err)
	}
	return p.save(pl, name)
}

// TimeLines is Lines with X holding unix seconds and date tick labels.
func (p Plotter) TimeLines(name, title, yLabel string, series ...Series) (string, error) {
	if !p.Enabled() || len(series) == 0 {
		return "", nil
	}
	pl := newPlot(title, "date", yLabel)
	pl.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	if err := addSeries(pl, series); err != nil {
		return "", core.ParseError("report.plot", "time lines %s: %v", name, err)
	}
	return p.save(pl, name)
}

func addSeries(pl *plot.Plot, series []Series) error {
	args := make([]interface{}, 0, 2*len(series))
	for _, s := range series {
		pts := make(plotter.XYs, len(s.X))
		for i := range s.X {
			pts[i].X, pts[i].Y = s.X[i], s.Y[i]
		}
		args = append(args, s.Name, pts)
	}
	return plotutil.AddLines(pl, args...)
}

// UnixSeconds converts dates to the X values TimeLines expects.
func UnixSeconds(ts []time.Time) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = float64(t.Unix())
	}
	return out
}
