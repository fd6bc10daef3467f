// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fst

import (
	"context"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/traverse"
)

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// forEachChunk splits [0, n) into min(parallelism, n) contiguous chunks and
// calls fn once per chunk, concurrently.  The first error cancels the
// context passed to the other chunks, and is returned.
func forEachChunk(ctx context.Context, n, parallelism int, fn func(ctx context.Context, startIdx, endIdx int) error) error {
	if n == 0 {
		return nil
	}
	nJob := minInt(parallelism, n)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var firstErr errorreporter.T
	err := traverse.Each(nJob, func(jobIdx int) error {
		startIdx := (jobIdx * n) / nJob
		endIdx := ((jobIdx + 1) * n) / nJob
		if e := fn(ctx, startIdx, endIdx); e != nil {
			// Errors caused by our own cancellation are not interesting.
			if ctx.Err() == nil {
				firstErr.Set(e)
			}
			cancel()
			return e
		}
		return nil
	})
	if e := firstErr.Err(); e != nil {
		return e
	}
	return err
}
