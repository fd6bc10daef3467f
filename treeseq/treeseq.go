// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package treeseq defines the tree-sequence interface consumed by the fst
// package, and a small table-backed implementation of it.
//
// A tree sequence describes the genealogy of a set of sampled genomes as a
// sequence of local trees, each valid over a half-open genomic interval.
// The table representation follows tskit: a node table (one row per
// genome, with a time and a population) and an edge table (one row per
// parent/child relationship, valid over [left, right)).
package treeseq

// NodeID identifies a node of the tree sequence.  Samples are nodes.
type NodeID int32

// NullNode is the parent of a root.
const NullNode NodeID = -1

// Tree is a single local tree.
type Tree interface {
	// Index returns the position of this tree in the tree sequence.
	Index() int
	// Interval returns the half-open genomic interval the tree is valid over.
	Interval() (left, right float64)
	// TMRCA returns the time of the most recent common ancestor of a and b in
	// this tree.
	TMRCA(a, b NodeID) (float64, error)
}

// TreeSequence is an ordered sequence of local trees partitioning
// [0, SequenceLength()).
type TreeSequence interface {
	SequenceLength() float64
	NumTrees() int
	// Breakpoints returns the NumTrees()+1 tree boundaries; tree i is valid
	// over [Breakpoints()[i], Breakpoints()[i+1]).  The caller must not
	// modify the returned slice.
	Breakpoints() []float64
	// Tree returns the i'th local tree.  Implementations must allow
	// concurrent calls.
	Tree(i int) (Tree, error)
	// Samples returns the sample nodes belonging to the given population, in
	// increasing ID order.
	Samples(population int) []NodeID
}

// TreeIterator visits a range of consecutive local trees.
//
//	it := treeseq.Trees(ts, start, end)
//	for it.Scan() {
//	  tree := it.Tree()
//	  ...
//	}
//	if err := it.Err(); err != nil { ... }
type TreeIterator interface {
	// Scan advances to the next tree.  It returns false at the end of the
	// range or on error.
	Scan() bool
	// Tree returns the current tree.  It is only valid until the next call
	// to Scan.
	Tree() Tree
	// Err returns the error which stopped Scan, if any.
	Err() error
}

// Iterable is implemented by tree sequences which can visit consecutive
// trees more cheaply than by calling Tree for each of them.
type Iterable interface {
	// Trees returns an iterator over trees [start, end).
	Trees(start, end int) TreeIterator
}

// Trees returns an iterator over trees [start, end) of ts.  It uses
// ts.Trees when ts is Iterable, and calls ts.Tree once per tree otherwise.
func Trees(ts TreeSequence, start, end int) TreeIterator {
	if it, ok := ts.(Iterable); ok {
		return it.Trees(start, end)
	}
	return &treeIterator{ts: ts, next: start, end: end}
}

type treeIterator struct {
	ts        TreeSequence
	next, end int
	tree      Tree
	err       error
}

func (it *treeIterator) Scan() bool {
	if it.err != nil || it.next >= it.end {
		return false
	}
	if it.tree, it.err = it.ts.Tree(it.next); it.err != nil {
		return false
	}
	it.next++
	return true
}

func (it *treeIterator) Tree() Tree { return it.tree }

func (it *treeIterator) Err() error { return it.err }
