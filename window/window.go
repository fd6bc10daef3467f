// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package window derives tiled or sliding windows over a genome of known
// length.  All windows are half-open [Start, Stop) intervals.
package window

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrConfig is the cause of every error returned for an invalid
// length/size/step combination.
var ErrConfig = errors.New("invalid window configuration")

// relTol is the relative tolerance used when comparing float coordinates
// which are expected to land on the same multiple of the step.
const relTol = 1e-9

// Window is a half-open genomic interval [Start, Stop).
type Window struct {
	Start float64
	Stop  float64
}

// Len returns Stop - Start.
func (w Window) Len() float64 {
	return w.Stop - w.Start
}

func (w Window) String() string {
	return fmt.Sprintf("[%g, %g)", w.Start, w.Stop)
}

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfig, format, args...)
}

// validate checks the length/size/step combination, and returns the
// effective step (size when no overlap was requested).
func validate(length, size, step float64) (float64, error) {
	if !(length > 0) || math.IsInf(length, 0) {
		return 0, configErrorf("sequence length must be positive, got %g", length)
	}
	if !(size > 0) {
		return 0, configErrorf("window size must be positive, got %g", size)
	}
	if size > length {
		return 0, configErrorf("window size %g exceeds sequence length %g", size, length)
	}
	if step < 0 || math.IsNaN(step) {
		return 0, configErrorf("step must be positive, got %g", step)
	}
	if step == 0 {
		return size, nil
	}
	if step > size {
		return 0, configErrorf("step %g exceeds window size %g", step, size)
	}
	if size == length {
		return step, nil
	}
	ratio := size / step
	if math.Abs(ratio-math.Round(ratio)) > relTol*ratio {
		return 0, configErrorf("window size %g is not a multiple of the step %g", size, step)
	}
	return step, nil
}

// Breakpoints returns the sorted window boundaries for a genome [0, length).
// Boundaries are placed at multiples of step (or of size, when step is zero),
// and length is appended when it is not itself a multiple; the last window
// may therefore be shorter than the others.  When size == length the result
// is {0, length}.
//
// Example: Breakpoints(100, 50, 25) returns {0, 25, 50, 75, 100}.
func Breakpoints(length, size, step float64) ([]float64, error) {
	step, err := validate(length, size, step)
	if err != nil {
		return nil, err
	}
	if size == length {
		return []float64{0, length}, nil
	}
	n := int(math.Floor(length / step))
	bps := make([]float64, 0, n+2)
	for i := 0; i <= n; i++ {
		b := float64(i) * step
		if b > length {
			break
		}
		bps = append(bps, b)
	}
	last := bps[len(bps)-1]
	switch {
	case last == length:
	case length-last <= relTol*length:
		bps[len(bps)-1] = length
	default:
		bps = append(bps, length)
	}
	return bps, nil
}

// Tile converts a boundary list into the windows between consecutive
// boundaries.
func Tile(bps []float64) []Window {
	if len(bps) < 2 {
		return nil
	}
	windows := make([]Window, len(bps)-1)
	for i := range windows {
		windows[i] = Window{Start: bps[i], Stop: bps[i+1]}
	}
	return windows
}

// Sliding returns the analysis windows for a genome [0, length): one window
// [b, min(b+size, length)) for every boundary b returned by Breakpoints,
// stopping after the first window which reaches length.  With step == 0 (no
// overlap) this is the same as Tile(Breakpoints(length, size, 0)).
func Sliding(length, size, step float64) ([]Window, error) {
	bps, err := Breakpoints(length, size, step)
	if err != nil {
		return nil, err
	}
	if step == 0 || step == size {
		return Tile(bps), nil
	}
	windows := make([]Window, 0, len(bps)-1)
	for _, b := range bps[:len(bps)-1] {
		stop := b + size
		if stop >= length || length-stop <= relTol*length {
			stop = length
		}
		windows = append(windows, Window{Start: b, Stop: stop})
		if stop == length {
			break
		}
	}
	return windows, nil
}
