// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// This file includes the datatypes and functions for representing the local
// tree intervals of a tree sequence as a []PosType of breakpoints, and
// querying them.
//
// For example, given the tree intervals
//   tree 0: [0, 30)
//   tree 1: [30, 70)
//   tree 2: [70, 100)
// the breakpoint sequence is
//   {0, 30, 70, 100}
// and tree i covers [breakpoints[i], breakpoints[i+1]).  A query for the
// window [20, 80) touches trees 0..2 with weights 10/60, 40/60 and 10/60.

// PosType is the type used to represent genomic coordinates.  Tree sequence
// coordinates are real-valued, so this is a float64.
type PosType = float64

var (
	// ErrPartition is the cause of the error returned by New when the tree
	// intervals are not a sorted, gap-free partition of [0, L).
	ErrPartition = errors.New("tree intervals do not partition the sequence")
	// ErrEmptyWindow is the cause of the error returned for a window which
	// overlaps no tree.  With a well-formed partition this only happens for
	// empty or out-of-range windows.
	ErrEmptyWindow = errors.New("window overlaps no tree")
)

// weightTol is the tolerance on the sum of a window's overlap weights.
const weightTol = 1e-9

// SearchPosTypes returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).  It's exactly the same
// as sort.SearchFloat64s(), except for PosType.
func SearchPosTypes(a []PosType, x PosType) EndpointIndex {
	return EndpointIndex(sort.Search(len(a), func(i int) bool { return a[i] >= x }))
}

// searchAfter returns the index of the first element of a[] strictly
// greater than x.
func searchAfter(a []PosType, x PosType) EndpointIndex {
	return EndpointIndex(sort.Search(len(a), func(i int) bool { return a[i] > x }))
}

// ExpsearchPosType performs "exponential search"
// (https://en.wikipedia.org/wiki/Exponential_search ), checking a[idx], then
// a[idx + 1], then a[idx + 3], then a[idx + 7], etc., and finishing with
// binary search once it's either found an element larger than the target or
// has hit the end of the slice.  It returns the index of the first element
// > x (not >= x; see EndpointIndex), and is usually a better choice than
// binary search when iterating over increasing positions.
func ExpsearchPosType(a []PosType, x PosType, idx EndpointIndex) EndpointIndex {
	nextIncr := EndpointIndex(1)
	startIdx := idx
	endIdx := EndpointIndex(len(a))
	for idx < endIdx {
		if a[idx] > x {
			endIdx = idx
			break
		}
		startIdx = idx + 1
		idx += nextIncr
		nextIncr *= 2
	}
	for startIdx < endIdx {
		midIdx := EndpointIndex((uint(startIdx) + uint(endIdx)) >> 1)
		if a[midIdx] > x {
			endIdx = midIdx
		} else {
			startIdx = midIdx + 1
		}
	}
	return startIdx
}

// EndpointIndex is intended to represent the result of
// searchAfter(breakpoints, pos): the index of the first breakpoint strictly
// greater than pos.  Subtracting 1 gives the index of the tree whose
// left-closed right-open interval contains pos.
type EndpointIndex uint32

// Tree returns the index of the tree containing the position this
// EndpointIndex was computed for.
func (ei EndpointIndex) Tree() int {
	return int(ei) - 1
}

// Overlap is a single (tree, weight) pair returned by a query.
type Overlap struct {
	// Tree is the index of the local tree.
	Tree int
	// Weight is the length of the intersection between the tree interval and
	// the window, divided by the window length.
	Weight float64
}

// Hits is the result of a window query.
type Hits struct {
	// First and Last are the inclusive range of trees touching the window.
	First, Last int
	// Overlaps has one entry per tree in [First, Last], in order.
	Overlaps []Overlap
}

// Weights returns the weights of h.Overlaps as a slice.
func (h Hits) Weights() []float64 {
	w := make([]float64, len(h.Overlaps))
	for i, o := range h.Overlaps {
		w[i] = o.Weight
	}
	return w
}

// Index is an immutable index over tree intervals.  It is safe for
// concurrent use.
type Index struct {
	// breakpoints has length NumTrees()+1; tree i covers
	// [breakpoints[i], breakpoints[i+1]).
	breakpoints []PosType
}

// New builds an Index from a tree sequence's breakpoints: a sorted list
// starting at 0 and ending at the sequence length, with tree i covering
// [breakpoints[i], breakpoints[i+1]).  The slice is copied.
func New(breakpoints []PosType) (*Index, error) {
	if len(breakpoints) < 2 {
		return nil, errors.Wrapf(ErrPartition, "need at least one tree, got %d breakpoints", len(breakpoints))
	}
	if breakpoints[0] != 0 {
		return nil, errors.Wrapf(ErrPartition, "first tree starts at %g, not 0", breakpoints[0])
	}
	for i := 1; i < len(breakpoints); i++ {
		if !(breakpoints[i] > breakpoints[i-1]) || math.IsInf(breakpoints[i], 0) {
			return nil, errors.Wrapf(ErrPartition, "tree %d has interval [%g, %g)", i-1, breakpoints[i-1], breakpoints[i])
		}
	}
	idx := &Index{breakpoints: make([]PosType, len(breakpoints))}
	copy(idx.breakpoints, breakpoints)
	return idx, nil
}

// NumTrees returns the number of tree intervals in the index.
func (idx *Index) NumTrees() int {
	return len(idx.breakpoints) - 1
}

// SequenceLength returns the right end of the last tree interval.
func (idx *Index) SequenceLength() PosType {
	return idx.breakpoints[len(idx.breakpoints)-1]
}

// Interval returns the [left, right) interval of the given tree.
func (idx *Index) Interval(tree int) (PosType, PosType) {
	return idx.breakpoints[tree], idx.breakpoints[tree+1]
}

// Query returns the trees overlapping [start, stop) along with their overlap
// weights.  A tree ending exactly at start, or starting exactly at stop, is
// not included.
func (idx *Index) Query(start, stop PosType) (Hits, error) {
	if err := idx.checkWindow(start, stop); err != nil {
		return Hits{}, err
	}
	first := searchAfter(idx.breakpoints, start)
	return idx.hits(first, start, stop), nil
}

func (idx *Index) checkWindow(start, stop PosType) error {
	if !(stop > start) || start < 0 || stop > idx.SequenceLength() {
		return errors.Wrapf(ErrEmptyWindow, "window [%g, %g) on sequence of length %g", start, stop, idx.SequenceLength())
	}
	return nil
}

// hits computes the overlaps of [start, stop), given
// first == searchAfter(idx.breakpoints, start).
func (idx *Index) hits(first EndpointIndex, start, stop PosType) Hits {
	bps := idx.breakpoints
	// The first breakpoint >= stop is the left end of the first tree which
	// does not touch the window.
	last := int(SearchPosTypes(bps, stop)) - 1
	h := Hits{First: first.Tree(), Last: last}
	h.Overlaps = make([]Overlap, 0, last-h.First+1)
	span := stop - start
	for tree := h.First; tree <= last; tree++ {
		lo := math.Max(bps[tree], start)
		hi := math.Min(bps[tree+1], stop)
		h.Overlaps = append(h.Overlaps, Overlap{Tree: tree, Weight: (hi - lo) / span})
	}
	return h
}

// Scanner supports queries with non-decreasing window starts, using
// exponential search from the previous query's position instead of a full
// binary search.  A Scanner must not be shared between goroutines, but any
// number of Scanners may share one Index.
type Scanner struct {
	idx         *Index
	endpointIdx EndpointIndex
}

// NewScanner returns a Scanner positioned at the start of the genome.
func NewScanner(idx *Index) Scanner {
	return Scanner{idx: idx}
}

// Query is equivalent to Index.Query.  start must not be smaller than the
// previous call's start.
func (s *Scanner) Query(start, stop PosType) (Hits, error) {
	if err := s.idx.checkWindow(start, stop); err != nil {
		return Hits{}, err
	}
	s.endpointIdx = ExpsearchPosType(s.idx.breakpoints, start, s.endpointIdx)
	return s.idx.hits(s.endpointIdx, start, stop), nil
}

// WeightSumOK reports whether the overlap weights of h sum to 1 within
// floating-point tolerance.
func (h Hits) WeightSumOK() bool {
	sum := 0.0
	for _, o := range h.Overlaps {
		sum += o.Weight
	}
	return math.Abs(sum-1) <= weightTol
}
