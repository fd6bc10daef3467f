// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fst

import (
	"context"
	"math/rand"
	"runtime"
	"sort"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/treefst/interval"
	"github.com/grailbio/treefst/treeseq"
	"github.com/grailbio/treefst/window"
	"github.com/pkg/errors"
)

// Mode selects where the Formula is applied.
type Mode int

const (
	// ModeTree applies the formula to each tree's divergence, and averages
	// the per-tree statistics over each window.
	ModeTree Mode = iota
	// ModeWindow averages the per-tree divergences over each window, and
	// applies the formula once per window.
	ModeWindow
)

var modeNames = map[string]Mode{
	"tree":   ModeTree,
	"window": ModeWindow,
}

func (m Mode) String() string {
	for name, mode := range modeNames {
		if mode == m {
			return name
		}
	}
	return "unknown"
}

// ParseMode parses "tree" or "window".
func ParseMode(s string) (Mode, error) {
	if m, ok := modeNames[strings.ToLower(s)]; ok {
		return m, nil
	}
	return 0, errors.Wrapf(ErrConfig, "unknown mode %q; expected tree or window", s)
}

// Opts configures Compute.
type Opts struct {
	// WindowSize is the window length.  Required.
	WindowSize float64
	// Step is the distance between consecutive window starts.  Zero means no
	// overlap (Step == WindowSize).  WindowSize must be a multiple of Step.
	Step float64
	// P1 and P2 are the two sample sets.  If both are empty, the samples of
	// Populations[0] and Populations[1] are used.
	P1, P2      []treeseq.NodeID
	Populations [2]int
	// SubsampleP1 and SubsampleP2, if positive, randomly restrict each sample
	// set to that many members, using Seed.
	SubsampleP1, SubsampleP2 int
	Seed                     int64
	// Formula defaults to Fst.
	Formula Formula
	Mode    Mode
	// Parallelism is the maximum number of concurrent jobs per phase; 0 means
	// runtime.NumCPU().
	Parallelism int
}

// DefaultOpts holds the default options.  WindowSize must still be set.
var DefaultOpts = Opts{
	Populations: [2]int{0, 1},
	Formula:     Fst,
	Mode:        ModeTree,
	Parallelism: 0,
}

// Row is one line of the result table.  Fst is NaN for a window whose
// statistic is undefined (zero denominator).
type Row struct {
	Start float64 `tsv:"start"`
	Stop  float64 `tsv:"stop"`
	Fst   float64 `tsv:"fst"`
}

// fstOpts is the validated form of Opts.
type fstOpts struct {
	windows     []window.Window
	index       *interval.Index
	p1, p2      []treeseq.NodeID
	formula     Formula
	mode        Mode
	parallelism int
}

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfig, format, args...)
}

// sortedCopy returns s sorted, and fails on duplicate members.
func sortedCopy(s []treeseq.NodeID, name string) ([]treeseq.NodeID, error) {
	c := make([]treeseq.NodeID, len(s))
	copy(c, s)
	sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	for i := 1; i < len(c); i++ {
		if c[i] == c[i-1] {
			return nil, configErrorf("sample %d appears twice in %s", c[i], name)
		}
	}
	return c, nil
}

// subsample returns k members of s chosen with r, in increasing order.
func subsample(r *rand.Rand, s []treeseq.NodeID, k int, name string) ([]treeseq.NodeID, error) {
	if k <= 0 {
		return s, nil
	}
	if k > len(s) {
		return nil, configErrorf("cannot subsample %d of the %d members of %s", k, len(s), name)
	}
	out := make([]treeseq.NodeID, k)
	for i, j := range r.Perm(len(s))[:k] {
		out[i] = s[j]
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// sampleSets resolves, validates and optionally subsamples the two sample
// sets.
func sampleSets(ts treeseq.TreeSequence, rawOpts *Opts) (p1, p2 []treeseq.NodeID, err error) {
	p1, p2 = rawOpts.P1, rawOpts.P2
	if len(p1) == 0 && len(p2) == 0 {
		p1 = ts.Samples(rawOpts.Populations[0])
		p2 = ts.Samples(rawOpts.Populations[1])
	}
	if p1, err = sortedCopy(p1, "p1"); err != nil {
		return
	}
	if p2, err = sortedCopy(p2, "p2"); err != nil {
		return
	}
	in1 := make(map[treeseq.NodeID]bool, len(p1))
	for _, u := range p1 {
		in1[u] = true
	}
	for _, u := range p2 {
		if in1[u] {
			return nil, nil, configErrorf("sample %d is in both p1 and p2", u)
		}
	}
	r := rand.New(rand.NewSource(rawOpts.Seed))
	if p1, err = subsample(r, p1, rawOpts.SubsampleP1, "p1"); err != nil {
		return
	}
	if p2, err = subsample(r, p2, rawOpts.SubsampleP2, "p2"); err != nil {
		return
	}
	if len(p1) < 2 {
		return nil, nil, errors.Wrapf(ErrInsufficientSamples, "p1 has %d members", len(p1))
	}
	if len(p2) < 2 {
		return nil, nil, errors.Wrapf(ErrInsufficientSamples, "p2 has %d members", len(p2))
	}
	return p1, p2, nil
}

// validate checks rawOpts against ts.  No tree is touched.
func validate(ts treeseq.TreeSequence, rawOpts *Opts) (*fstOpts, error) {
	var (
		opts fstOpts
		err  error
	)
	length := ts.SequenceLength()
	if opts.windows, err = window.Sliding(length, rawOpts.WindowSize, rawOpts.Step); err != nil {
		return nil, err
	}
	switch rawOpts.Mode {
	case ModeTree, ModeWindow:
		opts.mode = rawOpts.Mode
	default:
		return nil, configErrorf("unknown mode %d", rawOpts.Mode)
	}
	opts.formula = rawOpts.Formula
	if opts.formula == nil {
		opts.formula = Fst
	}
	opts.parallelism = rawOpts.Parallelism
	if opts.parallelism <= 0 {
		opts.parallelism = runtime.NumCPU()
	}
	if opts.p1, opts.p2, err = sampleSets(ts, rawOpts); err != nil {
		return nil, err
	}

	bps := ts.Breakpoints()
	if len(bps) != ts.NumTrees()+1 {
		return nil, errors.Wrapf(ErrPartition, "%d breakpoints for %d trees", len(bps), ts.NumTrees())
	}
	if opts.index, err = interval.New(bps); err != nil {
		return nil, err
	}
	if opts.index.SequenceLength() != length {
		return nil, errors.Wrapf(ErrPartition, "trees end at %g, sequence length is %g", opts.index.SequenceLength(), length)
	}
	return &opts, nil
}

// Compute returns one Row per window of ts, in increasing start order.
//
// Options are validated before any tree is processed.  Per-tree statistics
// are then computed for every tree (once each), and only after all of them
// are final are they combined into per-window values.  Any error aborts the
// run, and no partial table is returned.
func Compute(ctx context.Context, ts treeseq.TreeSequence, rawOpts *Opts) ([]Row, error) {
	opts, err := validate(ts, rawOpts)
	if err != nil {
		return nil, err
	}
	log.Printf("fst.Compute: %d trees, %d windows, |p1|=%d, |p2|=%d, mode=%v, parallelism=%d",
		ts.NumTrees(), len(opts.windows), len(opts.p1), len(opts.p2), opts.mode, opts.parallelism)
	trees, err := computeTrees(ctx, ts, opts)
	if err != nil {
		return nil, err
	}
	log.Printf("fst.Compute: tree statistics complete")
	rows, err := aggregateWindows(ctx, opts, trees)
	if err != nil {
		return nil, err
	}
	log.Printf("fst.Compute: window aggregation complete")
	return rows, nil
}
