package dataset

import (
	stderrors "errors"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/flat/pkg/errors"
)

type level int

func (l level) String() string { return [...]string{"low", "mid", "high"}[l] }

type point struct{ x, y int }

func zoo(t *testing.T) *Dataset {
	t.Helper()
	d, err := New("animal", "size", "legs", "weight")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, r := range [][]any{
		{"shark", "large", 0, 900.5},
		{"tiger", "medium", 4, 220.0},
		{"whale", "large", 0, 40000.0},
	} {
		if err := d.Add(r...); err != nil {
			t.Fatalf("Add(%v) error = %v", r, err)
		}
	}
	return d
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		code    errors.Code
	}{
		{"valid", []string{"a", "b"}, ""},
		{"no columns", nil, errors.ErrCodeInvalidInput},
		{"blank column", []string{"a", " "}, errors.ErrCodeInvalidColumn},
		{"duplicate column", []string{"a", "a"}, errors.ErrCodeInvalidColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.headers...)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("New() code = %q, want %q (err = %v)", got, tt.code, err)
			}
		})
	}
}

func TestAdd(t *testing.T) {
	d, _ := New("a", "b")

	if err := d.Add("x"); !stderrors.Is(err, ErrArity) {
		t.Errorf("Add(short) error = %v, want %v", err, ErrArity)
	}
	if err := d.Add("x", nil); !stderrors.Is(err, ErrUnsupportedValue) {
		t.Errorf("Add(nil) error = %v, want %v", err, ErrUnsupportedValue)
	}
	if err := d.Add("x", point{1, 2}); !stderrors.Is(err, ErrUnsupportedValue) {
		t.Errorf("Add(struct) error = %v, want %v", err, ErrUnsupportedValue)
	}
	if err := d.Add(level(1), time.Unix(0, 0)); err != nil {
		t.Errorf("Add(stringer, time) error = %v", err)
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
}

func TestAddCopiesRecord(t *testing.T) {
	d, _ := New("a")
	rec := []any{"x"}
	_ = d.Add(rec...)
	rec[0] = "y"
	if got := d.Row(0)[0]; got != "x" {
		t.Errorf("Row(0)[0] = %v, want x", got)
	}
}

func TestCompare(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"strings", "a", "b", -1},
		{"equal strings", "a", "a", 0},
		{"ints", 10, 9, 1},
		{"ints natively not lexically", 9, 10, -1},
		{"mixed int kinds", int8(3), int64(3), 0},
		{"signed vs unsigned", -1, uint(0), -1},
		{"unsigned vs signed", uint64(5), int32(4), 1},
		{"int vs float", 2, 2.5, -1},
		{"floats", -0.5, -1.5, 1},
		{"bools", false, true, -1},
		{"times", t0, t0.Add(time.Second), -1},
		{"stringer with int kind", level(2), level(0), 1},
		{"number before string", 100, "1", -1},
		{"bool before number", true, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Compare(tt.b, tt.a); got != -tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestCompareTuples(t *testing.T) {
	tuples := [][]any{
		{"b", 10},
		{"a", 9},
		{"b", 9},
		{"a", 10},
	}
	slices.SortFunc(tuples, CompareTuples)

	want := [][]any{{"a", 9}, {"a", 10}, {"b", 9}, {"b", 10}}
	for i := range want {
		if CompareTuples(tuples[i], want[i]) != 0 {
			t.Errorf("sorted[%d] = %v, want %v", i, tuples[i], want[i])
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"x", "x"},
		{42, "42"},
		{uint8(7), "7"},
		{1000000.0, "1000000"},
		{0.25, "0.25"},
		{float32(1.5), "1.5"},
		{true, "true"},
		{level(0), "low"},
		{time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), "2024-02-03T04:05:06Z"},
	}

	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{3, 3, true},
		{uint16(9), 9, true},
		{-2.5, -2.5, true},
		{level(2), 2, true},
		{"3", 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := Float(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Float(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIntegral(t *testing.T) {
	if !Integral(3) || !Integral(uint(3)) {
		t.Error("Integral() should accept integer kinds")
	}
	if Integral(3.0) || Integral("3") {
		t.Error("Integral() should reject floats and strings")
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{-3, -3, true},
		{uint8(200), 200, true},
		{level(1), 1, true},
		{uint64(1) << 63, 0, false},
		{2.0, 0, false},
		{"2", 0, false},
	}

	for _, tt := range tests {
		got, ok := Int(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Int(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
