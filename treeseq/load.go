// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package treeseq

import (
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// NodeRow is a row of a node table TSV file.  The header line is required;
// columns are matched by name.
type NodeRow struct {
	ID         int64   `tsv:"id"`
	Flags      int64   `tsv:"flags"`
	Time       float64 `tsv:"time"`
	Population int64   `tsv:"population"`
}

// EdgeRow is a row of an edge table TSV file.
type EdgeRow struct {
	Left   float64 `tsv:"left"`
	Right  float64 `tsv:"right"`
	Parent int64   `tsv:"parent"`
	Child  int64   `tsv:"child"`
}

// ReadNodes parses a node table.  Node IDs must be 0, 1, 2, ... in order.
func ReadNodes(r io.Reader) ([]Node, error) {
	reader := tsv.NewReader(r)
	reader.HasHeaderRow = true
	reader.UseHeaderNames = true
	var nodes []Node
	for {
		var row NodeRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if row.ID != int64(len(nodes)) {
			return nil, invalidf("node table row %d has id %d", len(nodes), row.ID)
		}
		nodes = append(nodes, Node{
			Flags:      uint32(row.Flags),
			Time:       row.Time,
			Population: int(row.Population),
		})
	}
	return nodes, nil
}

// ReadEdges parses an edge table.
func ReadEdges(r io.Reader) ([]Edge, error) {
	reader := tsv.NewReader(r)
	reader.HasHeaderRow = true
	reader.UseHeaderNames = true
	var edges []Edge
	for {
		var row EdgeRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		edges = append(edges, Edge{
			Left:   row.Left,
			Right:  row.Right,
			Parent: NodeID(row.Parent),
			Child:  NodeID(row.Child),
		})
	}
	return edges, nil
}

// WriteTables writes the node and edge tables in the format read by
// ReadNodes and ReadEdges.
func WriteTables(nodesOut, edgesOut io.Writer, t Tables) error {
	w := tsv.NewWriter(nodesOut)
	w.WriteString("id\tflags\ttime\tpopulation")
	if err := w.EndLine(); err != nil {
		return err
	}
	for i, n := range t.Nodes {
		w.WriteInt64(int64(i))
		w.WriteInt64(int64(n.Flags))
		w.WriteString(strconv.FormatFloat(n.Time, 'g', -1, 64))
		w.WriteInt64(int64(n.Population))
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	w = tsv.NewWriter(edgesOut)
	w.WriteString("left\tright\tparent\tchild")
	if err := w.EndLine(); err != nil {
		return err
	}
	for _, e := range t.Edges {
		w.WriteString(strconv.FormatFloat(e.Left, 'g', -1, 64))
		w.WriteString(strconv.FormatFloat(e.Right, 'g', -1, 64))
		w.WriteInt64(int64(e.Parent))
		w.WriteInt64(int64(e.Child))
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

func readTable(ctx context.Context, path string, parse func(io.Reader) error) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "open", path)
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	if err = parse(in.Reader(ctx)); err != nil {
		return errors.E(err, "read", path)
	}
	return nil
}

// Load reads node and edge tables from the given paths (local or any
// scheme registered with grailbio/base/file) and builds a TableSequence.
// A zero length means the sequence length is taken from the edges.
func Load(ctx context.Context, nodesPath, edgesPath string, length float64) (*TableSequence, error) {
	t := Tables{SequenceLength: length}
	if err := readTable(ctx, nodesPath, func(r io.Reader) (err error) {
		t.Nodes, err = ReadNodes(r)
		return
	}); err != nil {
		return nil, err
	}
	if err := readTable(ctx, edgesPath, func(r io.Reader) (err error) {
		t.Edges, err = ReadEdges(r)
		return
	}); err != nil {
		return nil, err
	}
	ts, err := New(t)
	if err != nil {
		return nil, err
	}
	log.Printf("treeseq.Load: %d nodes, %d edges, %d trees over [0, %g)", ts.NumNodes(), len(t.Edges), ts.NumTrees(), ts.SequenceLength())
	return ts, nil
}
