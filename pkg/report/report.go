// Package report collects the metrics, tables, notes and artifacts an
// analysis run produces, and renders them for the console.
//
// A Builder is filled by the evaluation stage and frozen into a Report with
// Build. Reports are immutable: every accessor returns a copy.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

// Metric is a named scalar result.
type Metric struct {
	Name  string
	Value float64
}

// Table is a titled grid of preformatted cells.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

func (t Table) clone() Table {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]string(nil), r...)
	}
	return Table{Title: t.Title, Columns: append([]string(nil), t.Columns...), Rows: rows}
}

// Report is the frozen outcome of one pipeline run.
type Report struct {
	ID       uuid.UUID
	Pipeline string
	RunID    string
	Created  time.Time

	metrics   []Metric
	tables    []Table
	notes     []string
	artifacts []string
}

// Metrics returns the metrics in insertion order.
func (r *Report) Metrics() []Metric { return append([]Metric(nil), r.metrics...) }

// Metric looks a metric up by name.
func (r *Report) Metric(name string) (float64, bool) {
	for _, m := range r.metrics {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// Tables returns the tables in insertion order.
func (r *Report) Tables() []Table {
	out := make([]Table, len(r.tables))
	for i, t := range r.tables {
		out[i] = t.clone()
	}
	return out
}

// Table looks a table up by title.
func (r *Report) Table(title string) (Table, bool) {
	for _, t := range r.tables {
		if t.Title == title {
			return t.clone(), true
		}
	}
	return Table{}, false
}

func (r *Report) Notes() []string     { return append([]string(nil), r.notes...) }
func (r *Report) Artifacts() []string { return append([]string(nil), r.artifacts...) }

// Print writes the report as aligned text.
func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "== %s (run %s)\n", r.Pipeline, r.RunID)
	if len(r.metrics) > 0 {
		fmt.Fprintln(tw, "\n-- metrics")
		for _, m := range r.metrics {
			fmt.Fprintf(tw, "%s\t%s\n", m.Name, FormatFloat(m.Value))
		}
	}
	for _, t := range r.tables {
		fmt.Fprintf(tw, "\n-- %s\n", t.Title)
		fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
	}
	if len(r.notes) > 0 {
		fmt.Fprintln(tw, "\n-- notes")
		for _, n := range r.notes {
			fmt.Fprintln(tw, n)
		}
	}
	if len(r.artifacts) > 0 {
		fmt.Fprintln(tw, "\n-- artifacts")
		for _, a := range r.artifacts {
			fmt.Fprintln(tw, a)
		}
	}
	if err := tw.Flush(); err != nil {
		return core.IOError("report.print", err)
	}
	return nil
}

// FormatFloat renders v with up to six significant decimals.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// Builder accumulates report content. It is not safe for concurrent use.
type Builder struct {
	pipeline string
	runID    string

	metrics   []Metric
	tables    []Table
	notes     []string
	artifacts []string
}

func NewBuilder(pipeline, runID string) *Builder {
	return &Builder{pipeline: pipeline, runID: runID}
}

// AddMetric appends a metric. A repeated name replaces the earlier value
// in place.
func (b *Builder) AddMetric(name string, value float64) *Builder {
	for i := range b.metrics {
		if b.metrics[i].Name == name {
			b.metrics[i].Value = value
			return b
		}
	}
	b.metrics = append(b.metrics, Metric{Name: name, Value: value})
	return b
}

// AddTable appends a copy of t. Rows shorter or longer than the header are
// a ConfigError.
func (b *Builder) AddTable(t Table) error {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return core.ConfigError("report.table", "%q row %d has %d cells, want %d", t.Title, i, len(row), len(t.Columns))
		}
	}
	b.tables = append(b.tables, t.clone())
	return nil
}

func (b *Builder) Note(format string, args ...any) *Builder {
	b.notes = append(b.notes, fmt.Sprintf(format, args...))
	return b
}

// AddArtifact records the path of a file written during the run. Empty
// paths are ignored so disabled plotters can be passed straight through.
func (b *Builder) AddArtifact(path string) *Builder {
	if path != "" {
		b.artifacts = append(b.artifacts, path)
	}
	return b
}

// Build freezes the builder into a Report.
func (b *Builder) Build() *Report {
	r := &Report{
		ID:        uuid.New(),
		Pipeline:  b.pipeline,
		RunID:     b.runID,
		Created:   time.Now().UTC(),
		metrics:   append([]Metric(nil), b.metrics...),
		notes:     append([]string(nil), b.notes...),
		artifacts: append([]string(nil), b.artifacts...),
	}
	for _, t := range b.tables {
		r.tables = append(r.tables, t.clone())
	}
	return r
}
