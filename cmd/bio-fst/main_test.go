// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/treefst/fst"
	"github.com/grailbio/treefst/treeseq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/cmdline"
)

func TestParseInts(t *testing.T) {
	got, err := parseInts(" 3, 1,,7 ")
	assert.NoError(t, err)
	expect.EQ(t, got, []int{3, 1, 7})
	got, err = parseInts("")
	assert.NoError(t, err)
	expect.EQ(t, len(got), 0)
	_, err = parseInts("1,x")
	expect.EQ(t, errors.Cause(err), fst.ErrConfig)

	pops, err := parsePopulations("2,0")
	assert.NoError(t, err)
	expect.EQ(t, pops, [2]int{2, 0})
	_, err = parsePopulations("1")
	expect.EQ(t, errors.Cause(err), fst.ErrConfig)
}

func TestPrintWindows(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, printWindows(&buf, 100, 50, 25))
	expect.EQ(t, buf.String(), "# breakpoints: 0,25,50,75,100\n0\t50\n25\t75\n50\t100\n")

	buf.Reset()
	err := printWindows(&buf, 100, 50, 30)
	expect.EQ(t, errors.Cause(err), fst.ErrConfig)
}

func newFlags(cmd *cmdline.Command) computeFlags {
	return computeFlags{
		length:      cmd.Flags.Float64("length", 0, ""),
		windowSize:  cmd.Flags.Float64("window-size", 0, ""),
		step:        cmd.Flags.Float64("step", 0, ""),
		p1:          cmd.Flags.String("p1", "", ""),
		p2:          cmd.Flags.String("p2", "", ""),
		populations: cmd.Flags.String("populations", "0,1", ""),
		subsampleP1: cmd.Flags.Int("subsample-p1", 0, ""),
		subsampleP2: cmd.Flags.Int("subsample-p2", 0, ""),
		seed:        cmd.Flags.Int64("seed", 0, ""),
		formula:     cmd.Flags.String("formula", "fst", ""),
		mode:        cmd.Flags.String("mode", "tree", ""),
		parallelism: cmd.Flags.Int("parallelism", 0, ""),
		out:         cmd.Flags.String("out", "", ""),
		plot:        cmd.Flags.String("plot", "", ""),
	}
}

func TestCompute(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	nodesPath := filepath.Join(tmpdir, "nodes.tsv")
	edgesPath := filepath.Join(tmpdir, "edges.tsv")
	var nodes, edges bytes.Buffer
	require.NoError(t, treeseq.WriteTables(&nodes, &edges, treeseq.TwoTreeTables()))
	require.NoError(t, os.WriteFile(nodesPath, nodes.Bytes(), 0644))
	require.NoError(t, os.WriteFile(edgesPath, edges.Bytes(), 0644))

	cmd := &cmdline.Command{}
	f := newFlags(cmd)
	require.NoError(t, cmd.Flags.Parse([]string{
		"-window-size", "50", "-p1", "0,1", "-p2", "2,3", "-parallelism", "2",
		"-plot", filepath.Join(tmpdir, "fst.png")}))
	var out bytes.Buffer
	env := &cmdline.Env{Stdout: &out, Stderr: &out}
	require.NoError(t, compute(env, f, nodesPath, edgesPath))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	expect.EQ(t, lines[0], "start\tstop\tfst")
	expect.True(t, strings.HasPrefix(lines[1], "0\t50\t0.333333"))
	expect.True(t, strings.HasPrefix(lines[2], "50\t100\t0.0318"))
	_, err := os.Stat(filepath.Join(tmpdir, "fst.png"))
	expect.NoError(t, err)

	// -out writes a file instead of stdout.
	outPath := filepath.Join(tmpdir, "fst.tsv")
	cmd = &cmdline.Command{}
	f = newFlags(cmd)
	require.NoError(t, cmd.Flags.Parse([]string{"-window-size", "100", "-mode", "window", "-out", outPath}))
	out.Reset()
	require.NoError(t, compute(env, f, nodesPath, edgesPath))
	expect.EQ(t, out.Len(), 0)
	in, err := os.Open(outPath)
	require.NoError(t, err)
	defer in.Close() // nolint: errcheck
	rows, err := fst.ReadTSV(in)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	expect.EQ(t, rows[0].Start, 0.0)
	expect.EQ(t, rows[0].Stop, 100.0)
}

func TestComputeBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"-window-size", "50", "-p1", "0,1"},
		{"-window-size", "50", "-formula", "gst"},
		{"-window-size", "50", "-mode", "genome"},
		{"-window-size", "50", "-populations", "0,1,2"},
	} {
		cmd := &cmdline.Command{}
		f := newFlags(cmd)
		require.NoError(t, cmd.Flags.Parse(args))
		_, err := f.opts()
		expect.EQ(t, errors.Cause(err), fst.ErrConfig, "args: %v", args)
	}
}
