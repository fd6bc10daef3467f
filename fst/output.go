// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fst

import (
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// WriteTSV writes rows as a TSV with a "start\tstop\tfst" header line.
// Undefined statistics are written as NaN.
func WriteTSV(w io.Writer, rows []Row) (err error) {
	out := tsv.NewWriter(w)
	out.WriteString("start\tstop\tfst")
	if err = out.EndLine(); err != nil {
		return
	}
	for _, row := range rows {
		out.WriteString(formatFloat(row.Start))
		out.WriteString(formatFloat(row.Stop))
		out.WriteString(formatFloat(row.Fst))
		if err = out.EndLine(); err != nil {
			return
		}
	}
	return out.Flush()
}

// ReadTSV reads a table written by WriteTSV.
func ReadTSV(r io.Reader) ([]Row, error) {
	reader := tsv.NewReader(r)
	reader.HasHeaderRow = true
	reader.UseHeaderNames = true
	rows := make([]Row, 0)
	for {
		var row Row
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteFile writes rows as a TSV to path.
func WriteFile(ctx context.Context, path string, rows []Row) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer func() {
		if e := out.Close(ctx); e != nil && err == nil {
			err = errors.E(e, "close", path)
		}
	}()
	if err = WriteTSV(out.Writer(ctx), rows); err != nil {
		return errors.E(err, "write", path)
	}
	return nil
}
