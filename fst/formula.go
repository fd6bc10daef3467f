// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fst

import (
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Divergence summarizes pairwise coalescence times within and between two
// sample sets.
type Divergence struct {
	// WithinP1 and WithinP2 are the mean TMRCAs over unordered pairs of each
	// sample set.
	WithinP1, WithinP2 float64
	// Within is the mean of WithinP1 and WithinP2.
	Within float64
	// Between is the mean TMRCA over the cross product of the two sets.
	Between float64
	// DataAvg is the mean of Within and Between.
	DataAvg float64
}

// Formula maps a divergence summary to a differentiation statistic.  A
// Formula returns NaN, never panics, when its denominator is zero.
type Formula func(Divergence) float64

// Fst returns (between - within) / (within + between).  For a per-tree
// divergence this is the same as (DataAvg - Within) / DataAvg.
func Fst(d Divergence) float64 {
	denom := d.Within + d.Between
	if denom == 0 {
		return math.NaN()
	}
	return (d.Between - d.Within) / denom
}

// AltFst returns 1 - within / between.
func AltFst(d Divergence) float64 {
	if d.Between == 0 {
		return math.NaN()
	}
	return 1 - d.Within/d.Between
}

var formulas = map[string]Formula{
	"fst":     Fst,
	"alt_fst": AltFst,
}

// FormulaNames returns the names accepted by ParseFormula.
func FormulaNames() []string {
	names := make([]string, 0, len(formulas))
	for name := range formulas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseFormula looks up a formula by name ("fst" or "alt_fst",
// case-insensitive).
func ParseFormula(name string) (Formula, error) {
	if f, ok := formulas[strings.ToLower(name)]; ok {
		return f, nil
	}
	return nil, errors.Wrapf(ErrConfig, "unknown formula %q; expected one of %s", name, strings.Join(FormulaNames(), ", "))
}
