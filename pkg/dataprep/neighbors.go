package dataprep

import (
	"context"
	"sort"

	"github.com/cuthie/Data-Science-Portfolio/pkg/engine"
)

// neighborTable returns, for every point, the indices of its k nearest other
// points by euclidean distance. Ties keep the lower index first. Row blocks
// run on eng, one block per worker; a nil eng searches on the caller.
func neighborTable(ctx context.Context, eng *engine.Engine, points [][]float64, k int) ([][]int, error) {
	out := make([][]int, len(points))
	if eng == nil || len(points) == 0 {
		for i := range points {
			out[i] = nearest(points, i, k)
		}
		return out, ctx.Err()
	}
	workers := eng.Threads()
	per := (len(points) + workers - 1) / workers
	err := eng.Run(ctx, workers, func(ctx context.Context, w int) error {
		for i := w * per; i < min((w+1)*per, len(points)); i++ {
			if i%256 == 0 && ctx.Err() != nil {
				return ctx.Err()
			}
			out[i] = nearest(points, i, k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// nearest keeps a small sorted slice of the k closest points to points[i].
func nearest(points [][]float64, i, k int) []int {
	type pair struct {
		d   float64
		idx int
	}
	nbrs := make([]pair, 0, k+1)
	less := func(a, b int) bool {
		if nbrs[a].d != nbrs[b].d {
			return nbrs[a].d < nbrs[b].d
		}
		return nbrs[a].idx < nbrs[b].idx
	}
	for j, xj := range points {
		if j == i {
			continue
		}
		d := euclidSquared(points[i], xj)
		switch {
		case len(nbrs) < k:
			nbrs = append(nbrs, pair{d, j})
			sort.Slice(nbrs, less)
		case d < nbrs[len(nbrs)-1].d:
			nbrs[len(nbrs)-1] = pair{d, j}
			sort.Slice(nbrs, less)
		}
	}
	out := make([]int, len(nbrs))
	for n, p := range nbrs {
		out[n] = p.idx
	}
	return out
}

// euclidSquared avoids the square root; only the ordering matters.
func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
