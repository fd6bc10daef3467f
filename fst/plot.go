// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fst

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotXYs returns one point per row with a defined statistic, at the window
// midpoint.
func PlotXYs(rows []Row) plotter.XYs {
	xy := make(plotter.XYs, 0, len(rows))
	for _, row := range rows {
		if math.IsNaN(row.Fst) {
			continue
		}
		xy = append(xy, plotter.XY{X: (row.Start + row.Stop) / 2, Y: row.Fst})
	}
	return xy
}

// Plot draws the statistic along the genome and saves it to path.  The image
// format is taken from the file extension (.png, .svg, .pdf, ...).
func Plot(rows []Row, title, path string) error {
	xy := PlotXYs(rows)
	if len(xy) == 0 {
		return errors.New("Plot: no window has a defined statistic")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "position"
	p.Y.Label.Text = "Fst"
	if err := plotutil.AddLinePoints(p, "Fst", xy); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
