package dataset

import (
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/matzehuels/flat/pkg/errors"
)

var (
	// ErrArity is returned by [Dataset.Add] when a record has a different
	// number of values than the dataset has headers.
	ErrArity = errors.New(errors.ErrCodeInvalidInput, "record length does not match header count")

	// ErrUnsupportedValue is returned by [Dataset.Add] for values that have
	// no total order (nil, maps, slices, structs without a String method).
	ErrUnsupportedValue = errors.New(errors.ErrCodeInvalidInput, "unsupported dimension value")
)

// Dataset is an append-only table of records. Every record is a dimension
// vector with one value per header.
//
// The zero value is not usable; create datasets with [New].
// A Dataset is not safe for concurrent mutation.
type Dataset struct {
	headers []string
	index   map[string]int
	rows    [][]any
}

// New creates an empty dataset. Header names must be valid column names
// and unique.
func New(headers ...string) (*Dataset, error) {
	if len(headers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "a dataset needs at least one column")
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if err := errors.ValidateColumnName(h); err != nil {
			return nil, err
		}
		if _, dup := index[h]; dup {
			return nil, errors.New(errors.ErrCodeInvalidColumn, "duplicate column %q", h)
		}
		index[h] = i
	}
	return &Dataset{headers: slices.Clone(headers), index: index}, nil
}

// Add appends one record. The record is copied.
func (d *Dataset) Add(values ...any) error {
	if len(values) != len(d.headers) {
		return errors.Wrap(errors.ErrCodeInvalidInput, ErrArity, "got %d values for %d columns", len(values), len(d.headers))
	}
	for i, v := range values {
		if !Supported(v) {
			return errors.Wrap(errors.ErrCodeInvalidInput, ErrUnsupportedValue, "column %q: %T", d.headers[i], v)
		}
	}
	d.rows = append(d.rows, slices.Clone(values))
	return nil
}

// Headers returns a copy of the column names.
func (d *Dataset) Headers() []string { return slices.Clone(d.headers) }

// Header returns the name of column i.
func (d *Dataset) Header(i int) string { return d.headers[i] }

// Width returns the number of columns.
func (d *Dataset) Width() int { return len(d.headers) }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.rows) }

// Row returns record i. The slice must not be modified.
func (d *Dataset) Row(i int) []any { return d.rows[i] }

// Column returns the index of the named column.
func (d *Dataset) Column(name string) (int, error) {
	i, ok := d.index[name]
	if !ok {
		return -1, errors.New(errors.ErrCodeInvalidColumn, "unknown column %q (have %v)", name, d.headers)
	}
	return i, nil
}

// Supported reports whether v can be used as a dimension value: strings,
// booleans, every integer and float kind, time.Time and any fmt.Stringer.
func Supported(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case string, bool, time.Time, fmt.Stringer:
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
