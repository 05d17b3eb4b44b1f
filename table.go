package shade

import (
	"math"
	"reflect"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// Input tables are go-gg columnar tables: a mapping from column name to a
// slice, all columns equal length. Coordinate and value columns may be
// []float64 or any other numeric slice type; they are converted once per
// chunk, not per sample.

// floatColumn extracts a numeric column as []float64. Returns a
// ConfigError when the column is absent and a DataError when it is not
// numeric.
func floatColumn(tbl *table.Table, name string) ([]float64, error) {
	col := tbl.Column(name)
	if col == nil {
		return nil, configErrorf("missing required column %q", name)
	}
	if fs, ok := col.([]float64); ok {
		return fs, nil
	}
	rv := reflect.ValueOf(col)
	if rv.Kind() != reflect.Slice || !numericKind(rv.Type().Elem().Kind()) {
		return nil, dataErrorf("column %q is %T, want a numeric slice", name, col)
	}
	var fs []float64
	slice.Convert(&fs, col)
	return fs, nil
}

func numericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// valueColumn extracts the reduction's value column for one chunk. For
// categorical reductions a []string column is mapped to category indices
// (unknown labels become NaN and are excluded); numeric columns are taken
// as indices directly. Returns nil values when the reduction carries no
// field.
func valueColumn(tbl *table.Table, red Reduction) ([]float64, error) {
	if !red.hasField() {
		return nil, nil
	}
	if red.categorical() {
		if ss, ok := tbl.Column(red.Field).([]string); ok {
			idx := make(map[string]int, len(red.Categories))
			for i, c := range red.Categories {
				idx[c] = i
			}
			vs := make([]float64, len(ss))
			for i, s := range ss {
				if j, ok := idx[s]; ok {
					vs[i] = float64(j)
				} else {
					vs[i] = math.NaN()
				}
			}
			return vs, nil
		}
	}
	return floatColumn(tbl, red.Field)
}

// DataRange computes the finite extrema of a numeric column in one full
// pass. It is the auto-ranging helper for callers that have no explicit
// canvas bounds. Returns a DataError when the column holds no finite
// values.
func DataRange(tbl *table.Table, name string) (lo, hi float64, err error) {
	vs, err := floatColumn(tbl, name)
	if err != nil {
		return 0, 0, err
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if !isFinite(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return 0, 0, dataErrorf("column %q has no finite values", name)
	}
	return lo, hi, nil
}
