// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package treeseq

import (
	"math"
	"sort"

	"github.com/biogo/store/llrb"
	"github.com/pkg/errors"
)

// NodeIsSample is the node flag bit marking sample nodes.
const NodeIsSample = 1

var (
	// ErrInvalidTables is the cause of errors returned by New for malformed
	// node or edge tables.
	ErrInvalidTables = errors.New("invalid tree sequence tables")
	// ErrNoMRCA is the cause of the error returned by TMRCA when the two
	// nodes are in different subtrees of a local tree.
	ErrNoMRCA = errors.New("nodes have no common ancestor")
)

// Node is a row of the node table.  A node's ID is its row number.
type Node struct {
	Flags      uint32
	Time       float64
	Population int
}

// IsSample reports whether the node is flagged as a sample.
func (n Node) IsSample() bool {
	return n.Flags&NodeIsSample != 0
}

// Edge is a row of the edge table: Parent is the parent of Child over
// [Left, Right).
type Edge struct {
	Left, Right   float64
	Parent, Child NodeID
}

// Tables holds the node and edge tables of a tree sequence.
type Tables struct {
	// SequenceLength is the genome length.  If zero, the largest edge right
	// coordinate is used.
	SequenceLength float64
	Nodes          []Node
	Edges          []Edge
}

// TableSequence is a TreeSequence backed by node and edge tables.  It is
// immutable once built, and safe for concurrent use.
type TableSequence struct {
	length float64
	times  []float64
	// edges is sorted by Left (insertion order), removals by Right.
	edges       []Edge
	removals    []Edge
	breakpoints []float64
	samples     map[int][]NodeID
}

// breakpoint is an llrb.Comparable genomic position.
type breakpoint float64

// Compare implements llrb.Comparable.
func (b breakpoint) Compare(c llrb.Comparable) int {
	o := c.(breakpoint)
	switch {
	case b < o:
		return -1
	case b > o:
		return 1
	}
	return 0
}

func invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidTables, format, args...)
}

// New validates the tables and builds a TableSequence.  The local trees are
// delimited by the distinct edge endpoints together with 0 and the sequence
// length.
func New(t Tables) (*TableSequence, error) {
	nNode := len(t.Nodes)
	if nNode == 0 {
		return nil, invalidf("empty node table")
	}
	ts := &TableSequence{
		length:  t.SequenceLength,
		times:   make([]float64, nNode),
		samples: make(map[int][]NodeID),
	}
	for i, n := range t.Nodes {
		if n.Time < 0 || math.IsNaN(n.Time) {
			return nil, invalidf("node %d has time %g", i, n.Time)
		}
		ts.times[i] = n.Time
		if n.IsSample() {
			ts.samples[n.Population] = append(ts.samples[n.Population], NodeID(i))
		}
	}

	maxRight := 0.0
	for i, e := range t.Edges {
		if e.Parent < 0 || int(e.Parent) >= nNode || e.Child < 0 || int(e.Child) >= nNode {
			return nil, invalidf("edge %d references node out of range: parent %d, child %d", i, e.Parent, e.Child)
		}
		if !(e.Left >= 0 && e.Right > e.Left) {
			return nil, invalidf("edge %d has interval [%g, %g)", i, e.Left, e.Right)
		}
		if !(ts.times[e.Parent] > ts.times[e.Child]) {
			return nil, invalidf("edge %d: parent %d (time %g) is not older than child %d (time %g)",
				i, e.Parent, ts.times[e.Parent], e.Child, ts.times[e.Child])
		}
		if e.Right > maxRight {
			maxRight = e.Right
		}
	}
	if ts.length == 0 {
		ts.length = maxRight
	}
	if !(ts.length > 0) {
		return nil, invalidf("sequence length must be positive, got %g", ts.length)
	}
	if maxRight > ts.length {
		return nil, invalidf("edge extends to %g, past sequence length %g", maxRight, ts.length)
	}

	ts.edges = make([]Edge, len(t.Edges))
	copy(ts.edges, t.Edges)
	sort.SliceStable(ts.edges, func(i, j int) bool { return ts.edges[i].Left < ts.edges[j].Left })
	ts.removals = make([]Edge, len(t.Edges))
	copy(ts.removals, t.Edges)
	sort.SliceStable(ts.removals, func(i, j int) bool { return ts.removals[i].Right < ts.removals[j].Right })

	var set llrb.Tree
	set.Insert(breakpoint(0))
	set.Insert(breakpoint(ts.length))
	for _, e := range ts.edges {
		set.Insert(breakpoint(e.Left))
		set.Insert(breakpoint(e.Right))
	}
	ts.breakpoints = make([]float64, 0, set.Len())
	set.Do(func(c llrb.Comparable) bool {
		ts.breakpoints = append(ts.breakpoints, float64(c.(breakpoint)))
		return false
	})
	return ts, nil
}

// SequenceLength implements TreeSequence.
func (ts *TableSequence) SequenceLength() float64 { return ts.length }

// NumTrees implements TreeSequence.
func (ts *TableSequence) NumTrees() int { return len(ts.breakpoints) - 1 }

// Breakpoints implements TreeSequence.
func (ts *TableSequence) Breakpoints() []float64 { return ts.breakpoints }

// NumNodes returns the number of rows in the node table.
func (ts *TableSequence) NumNodes() int { return len(ts.times) }

// Samples implements TreeSequence.
func (ts *TableSequence) Samples(population int) []NodeID {
	return ts.samples[population]
}

func twoParents(e Edge, old NodeID, left, right float64) error {
	return invalidf("node %d has two parents (%d, %d) over [%g, %g)", e.Child, old, e.Parent, left, right)
}

// seekParents builds the parent array of tree i from scratch.  It also
// returns the number of edges, in insertion and removal order respectively,
// which start or end at or before the tree's left end.
func (ts *TableSequence) seekParents(i int) (parent []NodeID, nIns, nRem int, err error) {
	left, right := ts.breakpoints[i], ts.breakpoints[i+1]
	parent = make([]NodeID, len(ts.times))
	for j := range parent {
		parent[j] = NullNode
	}
	nIns = sort.Search(len(ts.edges), func(j int) bool { return ts.edges[j].Left > left })
	nRem = sort.Search(len(ts.removals), func(j int) bool { return ts.removals[j].Right > left })
	// Every edge endpoint is a breakpoint, so an edge starting at or before
	// left either ends at or before left, or covers all of [left, right).
	for _, e := range ts.edges[:nIns] {
		if e.Right <= left {
			continue
		}
		if parent[e.Child] != NullNode {
			return nil, 0, 0, twoParents(e, parent[e.Child], left, right)
		}
		parent[e.Child] = e.Parent
	}
	return parent, nIns, nRem, nil
}

// Tree implements TreeSequence.  It builds the parent array of tree i from
// the edges covering the tree's interval; the result does not share mutable
// state with other trees.  Use Trees to visit consecutive trees.
func (ts *TableSequence) Tree(i int) (Tree, error) {
	if i < 0 || i >= ts.NumTrees() {
		return nil, errors.Errorf("tree index %d out of range [0, %d)", i, ts.NumTrees())
	}
	parent, _, _, err := ts.seekParents(i)
	if err != nil {
		return nil, err
	}
	return &localTree{
		index:  i,
		left:   ts.breakpoints[i],
		right:  ts.breakpoints[i+1],
		parent: parent,
		times:  ts.times,
	}, nil
}

// Trees implements Iterable.  Only the first tree of the range is built from
// scratch.  Each following tree is derived from its predecessor by removing
// the edges which end at its left end and inserting those which start there,
// so the cost of a range is one Tree call plus the number of edge changes.
func (ts *TableSequence) Trees(start, end int) TreeIterator {
	it := &edgeDiffIterator{ts: ts, next: start, end: end}
	if start < 0 || start > end || end > ts.NumTrees() {
		it.err = errors.Errorf("tree range [%d, %d) out of range [0, %d)", start, end, ts.NumTrees())
	}
	return it
}

type edgeDiffIterator struct {
	ts         *TableSequence
	next, end  int
	tree       localTree
	nIns, nRem int
	err        error
}

func (it *edgeDiffIterator) Scan() bool {
	if it.err != nil || it.next >= it.end {
		return false
	}
	ts := it.ts
	i := it.next
	left, right := ts.breakpoints[i], ts.breakpoints[i+1]
	if it.tree.parent == nil {
		if it.tree.parent, it.nIns, it.nRem, it.err = ts.seekParents(i); it.err != nil {
			return false
		}
	} else {
		parent := it.tree.parent
		for ; it.nRem < len(ts.removals) && ts.removals[it.nRem].Right <= left; it.nRem++ {
			parent[ts.removals[it.nRem].Child] = NullNode
		}
		for ; it.nIns < len(ts.edges) && ts.edges[it.nIns].Left <= left; it.nIns++ {
			e := ts.edges[it.nIns]
			if parent[e.Child] != NullNode {
				it.err = twoParents(e, parent[e.Child], left, right)
				return false
			}
			parent[e.Child] = e.Parent
		}
	}
	it.tree.index, it.tree.left, it.tree.right, it.tree.times = i, left, right, ts.times
	it.next++
	return true
}

func (it *edgeDiffIterator) Tree() Tree { return &it.tree }

func (it *edgeDiffIterator) Err() error { return it.err }

type localTree struct {
	index       int
	left, right float64
	parent      []NodeID
	times       []float64
}

func (t *localTree) Index() int { return t.index }

func (t *localTree) Interval() (float64, float64) { return t.left, t.right }

// TMRCA walks both nodes towards the root, always advancing the younger one.
// Parents are strictly older than their children, so the younger of two
// distinct nodes can never be the ancestor of the other.
func (t *localTree) TMRCA(a, b NodeID) (float64, error) {
	n := NodeID(len(t.parent))
	if a < 0 || a >= n || b < 0 || b >= n {
		return 0, errors.Errorf("TMRCA: node out of range: %d, %d", a, b)
	}
	for a != b {
		if t.times[a] <= t.times[b] {
			a = t.parent[a]
		} else {
			b = t.parent[b]
		}
		if a == NullNode || b == NullNode {
			return 0, errors.Wrapf(ErrNoMRCA, "tree %d [%g, %g)", t.index, t.left, t.right)
		}
	}
	return t.times[a], nil
}
