// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package interval implements an immutable index over the genomic intervals of
a tree sequence's local trees.  The intervals must partition the genome
[0, L): they are left-closed right-open, sorted, with no gaps and no
overlaps.  This lets the whole index be represented as a single sorted
[]PosType of breakpoints, and every query is a binary (or exponential)
search which never modifies the index.
*/
package interval
