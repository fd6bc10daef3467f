// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package fst computes a windowed population-differentiation statistic along a
tree sequence.

Problem:
Given a tree sequence, two disjoint sample sets p1 and p2, and a window
configuration, report one Fst value per (possibly overlapping) window.  A
window usually spans several local trees, and each tree should contribute in
proportion to the length of its overlap with the window.

Implementation strategy:
 1. Windows are derived from the sequence length, window size and step
    (package window), and the tree breakpoints are loaded into an immutable
    interval.Index.
 2. Phase one computes a Divergence summary for every local tree: the mean
    pairwise TMRCA within p1, within p2, and between p1 and p2.  This depends
    only on the tree and the sample sets, so it is done exactly once per tree,
    no matter how many windows overlap that tree.
 3. Phase two queries the index for each window and takes the
    overlap-weighted mean of the per-tree values.  In ModeTree (the default)
    the Formula is applied to each tree and the resulting statistics are
    averaged; in ModeWindow the divergence components are averaged and the
    Formula is applied once per window.

Both phases split their index range into at most Opts.Parallelism contiguous
chunks which are processed by traverse.Each; every chunk writes only its own
slots of a preallocated result slice.  Phase two does not start until every
tree has been processed, and any tree error aborts the run before
aggregation.

Zero denominators are not errors: the affected tree or window gets a NaN
value, and NaN propagates through the weighted mean.
*/
package fst

import (
	"github.com/grailbio/treefst/interval"
	"github.com/grailbio/treefst/window"
	"github.com/pkg/errors"
)

var (
	// ErrConfig is the cause of errors for invalid options, including
	// invalid window/step/sequence-length combinations.
	ErrConfig = window.ErrConfig
	// ErrInsufficientSamples is the cause of the error returned when a sample
	// set has fewer than two members.
	ErrInsufficientSamples = errors.New("sample set has fewer than two members")
	// ErrEmptyWindow is the cause of the error returned when a window maps to
	// no tree.
	ErrEmptyWindow = interval.ErrEmptyWindow
	// ErrPartition is the cause of the error returned when the tree intervals
	// do not partition the sequence.
	ErrPartition = interval.ErrPartition
)
