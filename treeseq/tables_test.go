// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package treeseq_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/treefst/treeseq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestTwoTrees(t *testing.T) {
	ts, err := treeseq.New(treeseq.TwoTreeTables())
	assert.NoError(t, err)
	expect.EQ(t, ts.SequenceLength(), 100.0)
	expect.EQ(t, ts.NumTrees(), 2)
	expect.EQ(t, ts.Breakpoints(), []float64{0, 60, 100})
	expect.EQ(t, ts.Samples(0), []treeseq.NodeID{0, 1})
	expect.EQ(t, ts.Samples(1), []treeseq.NodeID{2, 3})
	expect.EQ(t, len(ts.Samples(2)), 0)

	tests := []struct {
		tree int
		a, b treeseq.NodeID
		want float64
	}{
		{0, 0, 1, 10},
		{0, 2, 3, 20},
		{0, 0, 2, 30},
		{0, 1, 3, 30},
		{0, 4, 3, 30},
		{0, 0, 0, 0},
		{1, 0, 1, 25},
		{1, 2, 3, 35},
		{1, 0, 2, 15},
		{1, 1, 2, 25},
		{1, 3, 0, 35},
	}
	for _, tt := range tests {
		tree, err := ts.Tree(tt.tree)
		assert.NoError(t, err)
		expect.EQ(t, tree.Index(), tt.tree)
		got, err := tree.TMRCA(tt.a, tt.b)
		assert.NoError(t, err)
		expect.EQ(t, got, tt.want, "tree %d tmrca(%d, %d)", tt.tree, tt.a, tt.b)
	}
	tree, err := ts.Tree(1)
	assert.NoError(t, err)
	left, right := tree.Interval()
	expect.EQ(t, left, 60.0)
	expect.EQ(t, right, 100.0)

	_, err = ts.Tree(2)
	expect.NotNil(t, err)
	_, err = tree.TMRCA(0, 10)
	expect.NotNil(t, err)
}

func TestNoMRCA(t *testing.T) {
	tables := treeseq.TwoTreeTables()
	// Drop the root edges of the second tree.
	tables.Edges = tables.Edges[:10]
	ts, err := treeseq.New(tables)
	assert.NoError(t, err)
	tree, err := ts.Tree(1)
	assert.NoError(t, err)
	_, err = tree.TMRCA(0, 3)
	expect.EQ(t, errors.Cause(err), treeseq.ErrNoMRCA)
}

func TestInvalidTables(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*treeseq.Tables)
	}{
		{"no_nodes", func(t *treeseq.Tables) { t.Nodes = nil }},
		{"parent_younger", func(t *treeseq.Tables) { t.Nodes[4].Time = 0 }},
		{"bad_node", func(t *treeseq.Tables) { t.Edges[0].Parent = 42 }},
		{"empty_edge", func(t *treeseq.Tables) { t.Edges[0].Right = 0 }},
		{"past_end", func(t *treeseq.Tables) { t.SequenceLength = 50 }},
		{"negative_time", func(t *treeseq.Tables) { t.Nodes[0].Time = -1 }},
	}
	for _, tt := range tests {
		tables := treeseq.TwoTreeTables()
		tt.modify(&tables)
		_, err := treeseq.New(tables)
		expect.EQ(t, errors.Cause(err), treeseq.ErrInvalidTables, tt.name)
	}

	// Two parents for the same child over the same interval is only detected
	// when the tree is built.
	tables := treeseq.TwoTreeTables()
	tables.Edges = append(tables.Edges, treeseq.Edge{Left: 0, Right: 60, Parent: 5, Child: 0})
	ts, err := treeseq.New(tables)
	assert.NoError(t, err)
	_, err = ts.Tree(0)
	expect.EQ(t, errors.Cause(err), treeseq.ErrInvalidTables)
}

func TestSequenceLengthFromEdges(t *testing.T) {
	tables := treeseq.TwoTreeTables()
	tables.SequenceLength = 0
	ts, err := treeseq.New(tables)
	assert.NoError(t, err)
	expect.EQ(t, ts.SequenceLength(), 100.0)

	// Trailing region without edges becomes its own tree.
	tables.SequenceLength = 120
	ts, err = treeseq.New(tables)
	assert.NoError(t, err)
	expect.EQ(t, ts.Breakpoints(), []float64{0, 60, 100, 120})
}

func TestStarTables(t *testing.T) {
	ts, err := treeseq.New(treeseq.StarTables(3, 4, 1000))
	require.NoError(t, err)
	require.Equal(t, 4, ts.NumTrees())
	require.Equal(t, []float64{0, 250, 500, 750, 1000}, ts.Breakpoints())
	for k := 0; k < 4; k++ {
		tree, err := ts.Tree(k)
		require.NoError(t, err)
		within0, err := tree.TMRCA(0, 2)
		require.NoError(t, err)
		within1, err := tree.TMRCA(3, 5)
		require.NoError(t, err)
		between, err := tree.TMRCA(1, 4)
		require.NoError(t, err)
		require.Equal(t, float64(1+k), within0)
		require.Equal(t, float64(2+k), within1)
		require.Equal(t, float64(10+k), between)
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	ctx := vcontext.Background()
	out, err := file.Create(ctx, path)
	assert.NoError(t, err)
	_, err = out.Writer(ctx).Write(data)
	assert.NoError(t, err)
	assert.NoError(t, out.Close(ctx))
}

func TestLoad(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	var nodes, edges bytes.Buffer
	want := treeseq.TwoTreeTables()
	assert.NoError(t, treeseq.WriteTables(&nodes, &edges, want))

	ctx := vcontext.Background()
	nodesPath := filepath.Join(tmpdir, "nodes.tsv")
	edgesPath := filepath.Join(tmpdir, "edges.tsv")
	writeFile(t, nodesPath, nodes.Bytes())
	writeFile(t, edgesPath, edges.Bytes())

	ts, err := treeseq.Load(ctx, nodesPath, edgesPath, 0)
	assert.NoError(t, err)
	expect.EQ(t, ts.NumNodes(), len(want.Nodes))
	expect.EQ(t, ts.Breakpoints(), []float64{0, 60, 100})
	tree, err := ts.Tree(1)
	assert.NoError(t, err)
	tmrca, err := tree.TMRCA(1, 2)
	assert.NoError(t, err)
	expect.EQ(t, tmrca, 25.0)

	_, err = treeseq.Load(ctx, filepath.Join(tmpdir, "missing.tsv"), edgesPath, 0)
	expect.NotNil(t, err)
}

func TestReadNodesBadID(t *testing.T) {
	in := "id\tflags\ttime\tpopulation\n0\t1\t0\t0\n2\t1\t0\t0\n"
	_, err := treeseq.ReadNodes(bytes.NewBufferString(in))
	expect.EQ(t, errors.Cause(err), treeseq.ErrInvalidTables)
}
