// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package window_test

import (
	"math/rand"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/treefst/window"
	"github.com/pkg/errors"
)

func TestBreakpoints(t *testing.T) {
	tests := []struct {
		length, size, step float64
		want               []float64
	}{
		// No overlap, evenly divisible.
		{100, 50, 0, []float64{0, 50, 100}},
		// Overlapping: boundaries at multiples of the step.
		{100, 50, 25, []float64{0, 25, 50, 75, 100}},
		// Trailing shorter window.
		{110, 50, 0, []float64{0, 50, 100, 110}},
		{110, 50, 25, []float64{0, 25, 50, 75, 100, 110}},
		// Single window covering the genome.
		{100, 100, 0, []float64{0, 100}},
		{100, 100, 10, []float64{0, 100}},
		{1, 0.25, 0, []float64{0, 0.25, 0.5, 0.75, 1}},
	}
	for _, tt := range tests {
		got, err := window.Breakpoints(tt.length, tt.size, tt.step)
		assert.NoError(t, err)
		expect.EQ(t, got, tt.want, "length=%v size=%v step=%v", tt.length, tt.size, tt.step)
	}
}

func TestBreakpointsErrors(t *testing.T) {
	tests := []struct {
		name               string
		length, size, step float64
	}{
		{"zero_length", 0, 10, 0},
		{"negative_length", -5, 10, 0},
		{"zero_size", 100, 0, 0},
		{"negative_size", 100, -1, 0},
		{"size_exceeds_length", 100, 150, 0},
		{"negative_step", 100, 50, -5},
		{"step_exceeds_size", 100, 50, 60},
		{"not_divisible", 100, 50, 30},
	}
	for _, tt := range tests {
		_, err := window.Breakpoints(tt.length, tt.size, tt.step)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		expect.EQ(t, errors.Cause(err), window.ErrConfig, tt.name)
	}
}

func TestTile(t *testing.T) {
	bps, err := window.Breakpoints(100, 50, 0)
	assert.NoError(t, err)
	expect.EQ(t, window.Tile(bps), []window.Window{{0, 50}, {50, 100}})

	bps, err = window.Breakpoints(100, 50, 25)
	assert.NoError(t, err)
	expect.EQ(t, window.Tile(bps), []window.Window{{0, 25}, {25, 50}, {50, 75}, {75, 100}})

	expect.EQ(t, len(window.Tile([]float64{0})), 0)
}

func TestSliding(t *testing.T) {
	tests := []struct {
		length, size, step float64
		want               []window.Window
	}{
		{100, 50, 0, []window.Window{{0, 50}, {50, 100}}},
		{100, 50, 25, []window.Window{{0, 50}, {25, 75}, {50, 100}}},
		{110, 50, 25, []window.Window{{0, 50}, {25, 75}, {50, 100}, {75, 110}}},
		{100, 100, 25, []window.Window{{0, 100}}},
		{120, 50, 50, []window.Window{{0, 50}, {50, 100}, {100, 120}}},
	}
	for _, tt := range tests {
		got, err := window.Sliding(tt.length, tt.size, tt.step)
		assert.NoError(t, err)
		expect.EQ(t, got, tt.want, "length=%v size=%v step=%v", tt.length, tt.size, tt.step)
	}
}

// TestBreakpointsProperties checks the boundary invariants on random valid
// configurations.
func TestBreakpointsProperties(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for iter := 0; iter < 500; iter++ {
		step := float64(r.Intn(20) + 1)
		size := step * float64(r.Intn(5)+1)
		length := size + float64(r.Intn(500))
		if r.Intn(2) == 0 {
			step = 0
		}
		bps, err := window.Breakpoints(length, size, step)
		assert.NoError(t, err)
		expect.EQ(t, bps[0], 0.0)
		expect.EQ(t, bps[len(bps)-1], length)
		eff := step
		if eff == 0 || size == length {
			eff = size
		}
		for i := 1; i < len(bps); i++ {
			if !(bps[i] > bps[i-1]) {
				t.Fatalf("boundaries not strictly increasing: %v", bps)
			}
			if i < len(bps)-1 {
				expect.EQ(t, bps[i]-bps[i-1], eff)
			} else {
				expect.LE(t, bps[i]-bps[i-1], eff)
			}
		}

		windows, err := window.Sliding(length, size, step)
		assert.NoError(t, err)
		expect.EQ(t, windows[0].Start, 0.0)
		expect.EQ(t, windows[len(windows)-1].Stop, length)
		for i, w := range windows {
			if i < len(windows)-1 {
				expect.EQ(t, w.Len(), size)
			} else {
				expect.LE(t, w.Len(), size)
			}
		}
	}
}
