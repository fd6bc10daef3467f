// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fst

import (
	"context"
	"math"

	"github.com/grailbio/base/log"
	"github.com/grailbio/treefst/treeseq"
	"github.com/pkg/errors"
)

// PairWeights returns the number of unordered pairs within a sample set of
// size n1, within one of size n2, and the number of cross pairs n1*n2.  These
// are the weights needed to pool per-set means without biasing towards the
// smaller set.
func PairWeights(n1, n2 int) (within1, within2, cross float64) {
	return numPairs(n1), numPairs(n2), float64(n1) * float64(n2)
}

func numPairs(n int) float64 {
	return float64(n) * float64(n-1) / 2
}

func tmrca(t treeseq.Tree, a, b treeseq.NodeID) (float64, error) {
	time, err := t.TMRCA(a, b)
	if err != nil {
		return 0, err
	}
	if time < 0 || math.IsNaN(time) {
		return 0, errors.Errorf("tree %d: invalid TMRCA(%d, %d) = %g", t.Index(), a, b, time)
	}
	return time, nil
}

// meanWithin returns the mean TMRCA over all unordered pairs of s.
func meanWithin(t treeseq.Tree, s []treeseq.NodeID) (float64, error) {
	if len(s) < 2 {
		return 0, errors.Wrapf(ErrInsufficientSamples, "got %d", len(s))
	}
	sum := 0.0
	for i := 0; i < len(s); i++ {
		for j := i + 1; j < len(s); j++ {
			time, err := tmrca(t, s[i], s[j])
			if err != nil {
				return 0, err
			}
			sum += time
		}
	}
	return sum / numPairs(len(s)), nil
}

// meanBetween returns the mean TMRCA over the cross product of s1 and s2.
func meanBetween(t treeseq.Tree, s1, s2 []treeseq.NodeID) (float64, error) {
	sum := 0.0
	for _, a := range s1 {
		for _, b := range s2 {
			time, err := tmrca(t, a, b)
			if err != nil {
				return 0, err
			}
			sum += time
		}
	}
	return sum / (float64(len(s1)) * float64(len(s2))), nil
}

// TreeDivergence computes the divergence summary of a single local tree.
// Both sample sets need at least two members.
func TreeDivergence(t treeseq.Tree, p1, p2 []treeseq.NodeID) (Divergence, error) {
	var (
		d   Divergence
		err error
	)
	if d.WithinP1, err = meanWithin(t, p1); err != nil {
		return d, errors.Wrap(err, "p1")
	}
	if d.WithinP2, err = meanWithin(t, p2); err != nil {
		return d, errors.Wrap(err, "p2")
	}
	d.Within = (d.WithinP1 + d.WithinP2) / 2
	if d.Between, err = meanBetween(t, p1, p2); err != nil {
		return d, err
	}
	d.DataAvg = (d.Within + d.Between) / 2
	return d, nil
}

// treeTable holds the per-tree results of phase one, indexed by tree.
type treeTable struct {
	divs []Divergence
	// stats[i] is the formula applied to divs[i].
	stats []float64
}

// computeTrees computes the divergence and statistic of every tree of ts.
// Slot i of each table is written only by the job processing tree i.
func computeTrees(ctx context.Context, ts treeseq.TreeSequence, opts *fstOpts) (treeTable, error) {
	nTree := ts.NumTrees()
	tt := treeTable{
		divs:  make([]Divergence, nTree),
		stats: make([]float64, nTree),
	}
	err := forEachChunk(ctx, nTree, opts.parallelism, func(ctx context.Context, startIdx, endIdx int) error {
		log.Debug.Printf("computeTrees: trees [%d, %d)", startIdx, endIdx)
		it := treeseq.Trees(ts, startIdx, endIdx)
		for i := startIdx; it.Scan(); i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := it.Tree()
			left, right := t.Interval()
			if wantLeft, wantRight := opts.index.Interval(i); left != wantLeft || right != wantRight {
				return errors.Wrapf(ErrPartition, "tree %d covers [%g, %g), breakpoints say [%g, %g)", i, left, right, wantLeft, wantRight)
			}
			var err error
			if tt.divs[i], err = TreeDivergence(t, opts.p1, opts.p2); err != nil {
				return errors.Wrapf(err, "tree %d", i)
			}
			tt.stats[i] = opts.formula(tt.divs[i])
		}
		if err := it.Err(); err != nil {
			return errors.Wrapf(err, "trees [%d, %d)", startIdx, endIdx)
		}
		return nil
	})
	if err != nil {
		return treeTable{}, err
	}
	return tt, nil
}
