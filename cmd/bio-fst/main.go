// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/treefst/fst"
	"github.com/grailbio/treefst/treeseq"
	"github.com/grailbio/treefst/window"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"
)

// parseInts parses a comma-separated list of integers.  The empty string
// yields an empty list.
func parseInts(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, errors.Wrapf(fst.ErrConfig, "bad integer %q in %q", field, s)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseNodes(s string) ([]treeseq.NodeID, error) {
	ints, err := parseInts(s)
	if err != nil {
		return nil, err
	}
	nodes := make([]treeseq.NodeID, len(ints))
	for i, v := range ints {
		nodes[i] = treeseq.NodeID(v)
	}
	return nodes, nil
}

func parsePopulations(s string) (pops [2]int, err error) {
	ints, err := parseInts(s)
	if err != nil {
		return
	}
	if len(ints) != 2 {
		return pops, errors.Wrapf(fst.ErrConfig, "-populations takes two ids, got %q", s)
	}
	pops[0], pops[1] = ints[0], ints[1]
	return pops, nil
}

// printWindows writes the boundary list and the analysis windows for the
// given layout.
func printWindows(w io.Writer, length, size, step float64) error {
	bps, err := window.Breakpoints(length, size, step)
	if err != nil {
		return err
	}
	windows, err := window.Sliding(length, size, step)
	if err != nil {
		return err
	}
	strs := make([]string, len(bps))
	for i, b := range bps {
		strs[i] = strconv.FormatFloat(b, 'g', -1, 64)
	}
	if _, err := fmt.Fprintf(w, "# breakpoints: %s\n", strings.Join(strs, ",")); err != nil {
		return err
	}
	for _, win := range windows {
		if _, err := fmt.Fprintf(w, "%g\t%g\n", win.Start, win.Stop); err != nil {
			return err
		}
	}
	return nil
}

func newCmdWindows() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "windows",
		Short: "Print the window layout for a sequence length, window size and step",
	}
	length := cmd.Flags.Float64("length", 0, "Sequence length")
	size := cmd.Flags.Float64("window-size", 0, "Window length")
	step := cmd.Flags.Float64("step", 0, "Distance between window starts; 0 means non-overlapping windows")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("windows takes no arguments, but got %v", argv)
		}
		return printWindows(env.Stdout, *length, *size, *step)
	})
	return cmd
}

type computeFlags struct {
	length      *float64
	windowSize  *float64
	step        *float64
	p1, p2      *string
	populations *string
	subsampleP1 *int
	subsampleP2 *int
	seed        *int64
	formula     *string
	mode        *string
	parallelism *int
	out         *string
	plot        *string
}

// opts converts the flags to fst.Opts.
func (f computeFlags) opts() (fst.Opts, error) {
	var err error
	opts := fst.DefaultOpts
	opts.WindowSize = *f.windowSize
	opts.Step = *f.step
	opts.SubsampleP1 = *f.subsampleP1
	opts.SubsampleP2 = *f.subsampleP2
	opts.Seed = *f.seed
	opts.Parallelism = *f.parallelism
	if opts.P1, err = parseNodes(*f.p1); err != nil {
		return opts, err
	}
	if opts.P2, err = parseNodes(*f.p2); err != nil {
		return opts, err
	}
	if (len(opts.P1) == 0) != (len(opts.P2) == 0) {
		return opts, errors.Wrap(fst.ErrConfig, "-p1 and -p2 must be given together")
	}
	if opts.Populations, err = parsePopulations(*f.populations); err != nil {
		return opts, err
	}
	if opts.Formula, err = fst.ParseFormula(*f.formula); err != nil {
		return opts, err
	}
	if opts.Mode, err = fst.ParseMode(*f.mode); err != nil {
		return opts, err
	}
	return opts, nil
}

func compute(env *cmdline.Env, f computeFlags, nodesPath, edgesPath string) error {
	opts, err := f.opts()
	if err != nil {
		return err
	}
	ctx := vcontext.Background()
	ts, err := treeseq.Load(ctx, nodesPath, edgesPath, *f.length)
	if err != nil {
		return err
	}
	rows, err := fst.Compute(ctx, ts, &opts)
	if err != nil {
		return err
	}
	if *f.out == "" {
		err = fst.WriteTSV(env.Stdout, rows)
	} else {
		err = fst.WriteFile(ctx, *f.out, rows)
	}
	if err != nil {
		return err
	}
	if *f.plot != "" {
		title := fmt.Sprintf("%s Fst, window %g", opts.Mode, opts.WindowSize)
		if err := fst.Plot(rows, title, *f.plot); err != nil {
			return err
		}
	}
	return nil
}

func newCmdCompute() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "compute",
		Short:    "Compute windowed Fst from node and edge tables",
		ArgsName: "nodespath edgespath",
	}
	f := computeFlags{
		length:      cmd.Flags.Float64("length", 0, "Sequence length.  0 means the largest edge right coordinate"),
		windowSize:  cmd.Flags.Float64("window-size", 0, "Window length (required)"),
		step:        cmd.Flags.Float64("step", 0, "Distance between window starts; 0 means non-overlapping windows.  The window size must be a multiple of the step"),
		p1:          cmd.Flags.String("p1", "", "Comma-separated sample node ids of the first set.  If empty, the samples of the first of -populations are used"),
		p2:          cmd.Flags.String("p2", "", "Comma-separated sample node ids of the second set"),
		populations: cmd.Flags.String("populations", "0,1", "Two population ids whose samples form the sets when -p1 and -p2 are empty"),
		subsampleP1: cmd.Flags.Int("subsample-p1", 0, "If positive, randomly keep this many members of the first set"),
		subsampleP2: cmd.Flags.Int("subsample-p2", 0, "If positive, randomly keep this many members of the second set"),
		seed:        cmd.Flags.Int64("seed", 0, "Random seed for -subsample-p1 and -subsample-p2"),
		formula:     cmd.Flags.String("formula", "fst", "Statistic: "+strings.Join(fst.FormulaNames(), " or ")),
		mode:        cmd.Flags.String("mode", fst.ModeTree.String(), "'tree' averages per-tree statistics; 'window' applies the formula to window-averaged divergences"),
		parallelism: cmd.Flags.Int("parallelism", 0, "Maximum number of concurrent jobs; 0 = runtime.NumCPU()"),
		out:         cmd.Flags.String("out", "", "Output TSV path.  Defaults to stdout"),
		plot:        cmd.Flags.String("plot", "", "If set, also plot the statistic to this path (.png, .svg or .pdf)"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("compute takes nodespath edgespath, but got %v", argv)
		}
		return compute(env, f, argv[0], argv[1])
	})
	return cmd
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-fst",
			Short:    "Windowed Fst over tree sequences",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdWindows(),
				newCmdCompute(),
			},
		})
}
