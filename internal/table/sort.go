package table

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"
)

// Sort returns a stably sorted copy of records by the column key. An unknown
// key returns the records in input order.
func (t *Table[T]) Sort(records []T, key string, asc bool) []T {
	out := slices.Clone(records)
	col, ok := t.columns[key]
	if !ok || col.Value == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := compare(col.Value(a), col.Value(b))
		if !asc {
			return -c
		}
		return c
	})
	return out
}

// compare orders two column values of the same column. nil sorts first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Pointer {
		if va.IsNil() || vb.IsNil() {
			return cmp.Compare(boolRank(!va.IsNil()), boolRank(!vb.IsNil()))
		}
		return compare(va.Elem().Interface(), vb.Elem().Interface())
	}
	switch {
	case isInt(va) && isInt(vb):
		return cmp.Compare(va.Int(), vb.Int())
	case isUint(va) && isUint(vb):
		return cmp.Compare(va.Uint(), vb.Uint())
	case isNumber(va) && isNumber(vb):
		return cmp.Compare(toFloat(va), toFloat(vb))
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return strings.Compare(va.String(), vb.String())
	case va.Kind() == reflect.Bool && vb.Kind() == reflect.Bool:
		return cmp.Compare(boolRank(va.Bool()), boolRank(vb.Bool()))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || isUint(v) || v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	}
	return v.Float()
}
