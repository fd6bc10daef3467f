// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
bio-fst computes windowed Fst along a tree sequence.

The tree sequence is read from two TSV tables.  The node table has columns
"id flags time population"; a node is a sample iff bit 0 of flags is set.  The
edge table has columns "left right parent child".  Both have a header line.

Usage:

	bio-fst windows -length 1000000 -window-size 10000 -step 2500
	bio-fst compute -length 1000000 -window-size 10000 -out fst.tsv nodes.tsv edges.tsv

compute writes one "start stop fst" line per window, in increasing start
order.  A window whose statistic is undefined is written as NaN.  With -plot,
the statistic is also drawn to an image file.
*/
package main
