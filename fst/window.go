// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fst

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/grailbio/treefst/interval"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// normalizedWeights returns the overlap weights of h, rescaled to sum to 1
// if they do not already (up to rounding).
func normalizedWeights(h interval.Hits) ([]float64, error) {
	if len(h.Overlaps) == 0 {
		return nil, errors.Wrap(ErrEmptyWindow, "no overlapping trees")
	}
	ws := h.Weights()
	if h.WeightSumOK() {
		return ws, nil
	}
	sum := floats.Sum(ws)
	if !(sum > 0) {
		return nil, errors.Wrapf(ErrEmptyWindow, "overlap weights sum to %g", sum)
	}
	floats.Scale(1/sum, ws)
	return ws, nil
}

// WeightedMean returns the weighted mean of the per-tree values
// values[h.First..h.Last], using the overlap weights of h.  A NaN value
// yields NaN.
func WeightedMean(values []float64, h interval.Hits) (float64, error) {
	ws, err := normalizedWeights(h)
	if err != nil {
		return 0, err
	}
	return stat.Mean(values[h.First:h.Last+1], ws), nil
}

// WeightedDivergence returns the component-wise weighted mean of the
// per-tree divergences divs[h.First..h.Last].
func WeightedDivergence(divs []Divergence, h interval.Hits) (Divergence, error) {
	ws, err := normalizedWeights(h)
	if err != nil {
		return Divergence{}, err
	}
	span := divs[h.First : h.Last+1]
	col := make([]float64, len(span))
	mean := func(get func(Divergence) float64) float64 {
		for i, d := range span {
			col[i] = get(d)
		}
		return stat.Mean(col, ws)
	}
	return Divergence{
		WithinP1: mean(func(d Divergence) float64 { return d.WithinP1 }),
		WithinP2: mean(func(d Divergence) float64 { return d.WithinP2 }),
		Within:   mean(func(d Divergence) float64 { return d.Within }),
		Between:  mean(func(d Divergence) float64 { return d.Between }),
		DataAvg:  mean(func(d Divergence) float64 { return d.DataAvg }),
	}, nil
}

// aggregateWindows computes one Row per window.  It only reads the
// already-final per-tree tables; each job owns a contiguous range of windows
// and its own interval.Scanner.
func aggregateWindows(ctx context.Context, opts *fstOpts, trees treeTable) ([]Row, error) {
	windows := opts.windows
	rows := make([]Row, len(windows))
	err := forEachChunk(ctx, len(windows), opts.parallelism, func(ctx context.Context, startIdx, endIdx int) error {
		log.Debug.Printf("aggregateWindows: windows [%d, %d)", startIdx, endIdx)
		scanner := interval.NewScanner(opts.index)
		for i := startIdx; i < endIdx; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			w := windows[i]
			h, err := scanner.Query(w.Start, w.Stop)
			if err != nil {
				return errors.Wrapf(err, "window %v", w)
			}
			rows[i] = Row{Start: w.Start, Stop: w.Stop}
			if opts.mode == ModeTree {
				rows[i].Fst, err = WeightedMean(trees.stats, h)
			} else {
				var d Divergence
				d, err = WeightedDivergence(trees.divs, h)
				rows[i].Fst = opts.formula(d)
			}
			if err != nil {
				return errors.Wrapf(err, "window %v", w)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
