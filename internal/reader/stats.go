// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package reader

import (
	"github.com/apache/arrow-go/v18/parquet/metadata"
)

// toInt64 widens whichever integer type a column's Min/Max statistics
// came back as (int64 for the v1 long table's spectrum_id, uint32 for the
// v2 peaks/spectra tables) into a common comparable type.
func toInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case int:
		return int64(x), true
	default:
		return 0, false
	}
}

// prunedRowGroups inspects name's row-group-level statistics on colIdx and
// returns the indices of row groups whose [min, max] overlaps [lo, hi].
// A row group with missing, inexact, or unrecognised statistics is always
// included, degrading gracefully to a full scan of that group rather than
// risking a false prune (§4.6, "missing or inexact statistics degrade
// gracefully to a full scan").
func (d *Dataset) prunedRowGroups(name string, colIdx int, lo, hi int64) ([]int, error) {
	t, err := d.openTable(name)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	md := t.pf.MetaData()
	n := t.pf.NumRowGroups()
	groups := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if overlapsOrUnknown(md.RowGroup(i), colIdx, lo, hi) {
			groups = append(groups, i)
		}
	}
	return groups, nil
}

func overlapsOrUnknown(rg *metadata.RowGroupMetaData, colIdx int, lo, hi int64) bool {
	cc, err := rg.ColumnChunk(colIdx)
	if err != nil {
		return true
	}
	stats, err := cc.Statistics()
	if err != nil || stats == nil || !stats.HasMinMax() {
		return true
	}
	typed, ok := stats.(metadata.TypedStatistics)
	if !ok {
		return true
	}
	min, minOK := toInt64(typed.Min())
	max, maxOK := toInt64(typed.Max())
	if !minOK || !maxOK {
		return true
	}
	return max >= lo && min <= hi
}
