package dataset

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// value classes, in ascending order
const (
	classBool = iota
	classSigned
	classUnsigned
	classFloat
	classTime
	classText
)

func classify(v any) int {
	switch v.(type) {
	case time.Time:
		return classTime
	case string:
		return classText
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool:
		return classBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return classSigned
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return classUnsigned
	case reflect.Float32, reflect.Float64:
		return classFloat
	}
	return classText
}

func isNumber(class int) bool {
	return class == classSigned || class == classUnsigned || class == classFloat
}

// Compare is the native total order over dimension values. Numbers
// compare by value regardless of their Go type, times chronologically,
// booleans false before true; everything else compares by its string
// form. Values of different classes order booleans, numbers, times, text.
func Compare(a, b any) int {
	ca, cb := classify(a), classify(b)
	switch {
	case isNumber(ca) && isNumber(cb):
		return compareNumbers(a, ca, b, cb)
	case ca != cb:
		return cmp.Compare(rank(ca), rank(cb))
	}
	switch ca {
	case classBool:
		return cmp.Compare(boolInt(reflect.ValueOf(a).Bool()), boolInt(reflect.ValueOf(b).Bool()))
	case classTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(Format(a), Format(b))
	}
}

// CompareTuples orders equal-length tuples element by element.
func CompareTuples(a, b []any) int {
	for i := range min(len(a), len(b)) {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func rank(class int) int {
	if isNumber(class) {
		return classSigned
	}
	return class
}

func compareNumbers(a any, ca int, b any, cb int) int {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case ca == classSigned && cb == classSigned:
		return cmp.Compare(va.Int(), vb.Int())
	case ca == classUnsigned && cb == classUnsigned:
		return cmp.Compare(va.Uint(), vb.Uint())
	case ca == classSigned && cb == classUnsigned:
		if va.Int() < 0 {
			return -1
		}
		return cmp.Compare(uint64(va.Int()), vb.Uint())
	case ca == classUnsigned && cb == classSigned:
		if vb.Int() < 0 {
			return 1
		}
		return cmp.Compare(va.Uint(), uint64(vb.Int()))
	}
	fa, _ := Float(a)
	fb, _ := Float(b)
	return cmp.Compare(fa, fb)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Format returns the string projection of a dimension value. Labels,
// grouping keys and breakdown headers all use it.
func Format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

// Float converts a numeric dimension value to float64.
func Float(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Int converts an integer dimension value to int64. Floats and unsigned
// values above math.MaxInt64 report false.
func Int(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u), true
		}
	}
	return 0, false
}

// Integral reports whether v is of an integer kind.
func Integral(v any) bool {
	c := classify(v)
	return c == classSigned || c == classUnsigned
}
