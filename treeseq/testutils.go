// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package treeseq

// TwoTreeTables returns a small tree sequence over [0, 100) with four
// samples, nodes 0 and 1 in population 0 and nodes 2 and 3 in population 1.
//
// Tree 0, [0, 60):        Tree 1, [60, 100):
//
//	       6 (t=30)                9 (t=35)
//	      /  \                    /  \
//	(t=10)4    5 (t=20)    (t=25)8    \
//	    / \  / \                / \    \
//	   0  1 2   3        (t=15)7   1    3
//	                           / \
//	                          0   2
func TwoTreeTables() Tables {
	return Tables{
		SequenceLength: 100,
		Nodes: []Node{
			{Flags: NodeIsSample, Time: 0, Population: 0},
			{Flags: NodeIsSample, Time: 0, Population: 0},
			{Flags: NodeIsSample, Time: 0, Population: 1},
			{Flags: NodeIsSample, Time: 0, Population: 1},
			{Time: 10, Population: -1},
			{Time: 20, Population: -1},
			{Time: 30, Population: -1},
			{Time: 15, Population: -1},
			{Time: 25, Population: -1},
			{Time: 35, Population: -1},
		},
		Edges: []Edge{
			{0, 60, 4, 0},
			{0, 60, 4, 1},
			{0, 60, 5, 2},
			{0, 60, 5, 3},
			{0, 60, 6, 4},
			{0, 60, 6, 5},
			{60, 100, 7, 0},
			{60, 100, 7, 2},
			{60, 100, 8, 7},
			{60, 100, 8, 1},
			{60, 100, 9, 8},
			{60, 100, 9, 3},
		},
	}
}

// StarTables returns a tree sequence over [0, length) with nSample samples
// per population and nTree trees of equal length.  In tree k, the samples of
// population 0 coalesce at time 1+k, those of population 1 at time 2+k, and
// the two population ancestors join at time 10+k.
func StarTables(nSample, nTree int, length float64) Tables {
	t := Tables{SequenceLength: length}
	for pop := 0; pop < 2; pop++ {
		for i := 0; i < nSample; i++ {
			t.Nodes = append(t.Nodes, Node{Flags: NodeIsSample, Population: pop})
		}
	}
	for k := 0; k < nTree; k++ {
		left := length * float64(k) / float64(nTree)
		right := length * float64(k+1) / float64(nTree)
		if k == nTree-1 {
			right = length
		}
		base := NodeID(len(t.Nodes))
		t.Nodes = append(t.Nodes,
			Node{Time: float64(1 + k), Population: 0},
			Node{Time: float64(2 + k), Population: 1},
			Node{Time: float64(10 + k), Population: -1})
		for pop := 0; pop < 2; pop++ {
			for i := 0; i < nSample; i++ {
				t.Edges = append(t.Edges, Edge{left, right, base + NodeID(pop), NodeID(pop*nSample + i)})
			}
			t.Edges = append(t.Edges, Edge{left, right, base + 2, base + NodeID(pop)})
		}
	}
	return t
}
