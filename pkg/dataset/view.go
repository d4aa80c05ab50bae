package dataset

import (
	"slices"

	"github.com/matzehuels/flat/pkg/errors"
)

const (
	// NoBreakdown marks a view without a breakdown dimension.
	NoBreakdown = -1
	// CountValue makes every record measure 1.
	CountValue = -1

	// CountHeader labels the measurement of counting views.
	CountHeader = "Count"
)

// Roles assigns dataset columns to chart roles.
type Roles struct {
	// Primary is the innermost, always rendered grouping column.
	Primary int
	// Breakdown is rendered as parallel bar columns, or NoBreakdown.
	Breakdown int
	// Display lists the label columns from innermost to outermost. The
	// primary column is always Display[0]; it is inserted when missing.
	Display []int
	// Value is the measured column, or CountValue.
	Value int
}

// Observation is one record as seen through a view.
type Observation struct {
	Value     float64
	Primary   any
	Breakdown any // nil without a breakdown
	Display   []any
}

// Source is what charts consume.
type Source interface {
	// Len returns the number of records.
	Len() int
	// Observation returns record i projected onto the view's roles.
	Observation(i int) (Observation, error)
	// DisplayHeaders names the display columns, primary first.
	DisplayHeaders() []string
	// BreakdownHeader names the breakdown column, if any.
	BreakdownHeader() (string, bool)
	// ValueHeader names the measurement.
	ValueHeader() string
}

// View is a non-owning projection of a dataset through a role map. It
// observes records appended after its creation and must not outlive the
// dataset.
type View struct {
	data  *Dataset
	roles Roles
}

var _ Source = (*View)(nil)

// View validates roles against d and returns the view.
func (d *Dataset) View(roles Roles) (*View, error) {
	n := len(d.headers)
	inRange := func(i int) bool { return i >= 0 && i < n }

	if !inRange(roles.Primary) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "primary column %d out of range [0, %d)", roles.Primary, n)
	}
	if roles.Breakdown != NoBreakdown {
		if !inRange(roles.Breakdown) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "breakdown column %d out of range [0, %d)", roles.Breakdown, n)
		}
		if roles.Breakdown == roles.Primary {
			return nil, errors.New(errors.ErrCodeInvalidInput, "column %q cannot be both primary and breakdown", d.headers[roles.Primary])
		}
	}
	if roles.Value != CountValue && !inRange(roles.Value) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "value column %d out of range [0, %d)", roles.Value, n)
	}

	display := []int{roles.Primary}
	for _, i := range roles.Display {
		switch {
		case !inRange(i):
			return nil, errors.New(errors.ErrCodeInvalidInput, "display column %d out of range [0, %d)", i, n)
		case i == roles.Breakdown:
			return nil, errors.New(errors.ErrCodeInvalidInput, "column %q cannot be both displayed and a breakdown", d.headers[i])
		case slices.Contains(display[1:], i):
			return nil, errors.New(errors.ErrCodeInvalidInput, "column %q displayed twice", d.headers[i])
		case i != roles.Primary:
			display = append(display, i)
		}
	}
	roles.Display = display

	return &View{data: d, roles: roles}, nil
}

// Counting views column 0 as primary, displays every column and counts
// records.
func (d *Dataset) Counting() (*View, error) {
	return d.View(Roles{Primary: 0, Breakdown: NoBreakdown, Display: d.except(), Value: CountValue})
}

// CountingBreakdown is Counting with column b as the breakdown.
func (d *Dataset) CountingBreakdown(b int) (*View, error) {
	return d.View(Roles{Primary: 0, Breakdown: b, Display: d.except(b), Value: CountValue})
}

// Measuring views column 0 as primary and measures column v. Every other
// column is displayed.
func (d *Dataset) Measuring(v int) (*View, error) {
	return d.View(Roles{Primary: 0, Breakdown: NoBreakdown, Display: d.except(v), Value: v})
}

// MeasuringBreakdown is Measuring with column b as the breakdown.
func (d *Dataset) MeasuringBreakdown(v, b int) (*View, error) {
	return d.View(Roles{Primary: 0, Breakdown: b, Display: d.except(v, b), Value: v})
}

// Reflective views column 0 as both the primary and the measurement, as
// used for histograms of a numeric column.
func (d *Dataset) Reflective() (*View, error) {
	return d.View(Roles{Primary: 0, Breakdown: NoBreakdown, Display: d.except(), Value: 0})
}

// except lists the columns not in skip, in order.
func (d *Dataset) except(skip ...int) []int {
	var out []int
	for i := range d.headers {
		if !slices.Contains(skip, i) {
			out = append(out, i)
		}
	}
	return out
}

// Roles returns the validated role map.
func (v *View) Roles() Roles {
	r := v.roles
	r.Display = slices.Clone(r.Display)
	return r
}

// Dataset returns the viewed dataset.
func (v *View) Dataset() *Dataset { return v.data }

// Len implements [Source].
func (v *View) Len() int { return v.data.Len() }

// Observation implements [Source]. A non-numeric measurement is an
// ErrCodeInvalidInput error.
func (v *View) Observation(i int) (Observation, error) {
	row := v.data.rows[i]
	o := Observation{
		Value:   1,
		Primary: row[v.roles.Primary],
		Display: make([]any, len(v.roles.Display)),
	}
	if v.roles.Value != CountValue {
		f, ok := Float(row[v.roles.Value])
		if !ok {
			return Observation{}, errors.New(errors.ErrCodeInvalidInput,
				"record %d: %q value %v is not numeric", i, v.data.headers[v.roles.Value], row[v.roles.Value])
		}
		o.Value = f
	}
	if v.roles.Breakdown != NoBreakdown {
		o.Breakdown = row[v.roles.Breakdown]
	}
	for j, col := range v.roles.Display {
		o.Display[j] = row[col]
	}
	return o, nil
}

// DisplayHeaders implements [Source].
func (v *View) DisplayHeaders() []string {
	out := make([]string, len(v.roles.Display))
	for j, col := range v.roles.Display {
		out[j] = v.data.headers[col]
	}
	return out
}

// BreakdownHeader implements [Source].
func (v *View) BreakdownHeader() (string, bool) {
	if v.roles.Breakdown == NoBreakdown {
		return "", false
	}
	return v.data.headers[v.roles.Breakdown], true
}

// ValueHeader implements [Source].
func (v *View) ValueHeader() string {
	if v.roles.Value == CountValue {
		return CountHeader
	}
	return v.data.headers[v.roles.Value]
}

// ===== Roles by name =====

// RoleNames selects roles by header name. Empty fields take defaults:
// the first column is primary, records are counted, there is no
// breakdown, and nil Display shows every column not otherwise used.
type RoleNames struct {
	Primary   string   `toml:"primary" json:"primary,omitempty" yaml:"primary"`
	Display   []string `toml:"display" json:"display,omitempty" yaml:"display"`
	Breakdown string   `toml:"breakdown" json:"breakdown,omitempty" yaml:"breakdown"`
	Value     string   `toml:"value" json:"value,omitempty" yaml:"value"`
}

// Resolve turns names into a validated view of d.
func (d *Dataset) Resolve(n RoleNames) (*View, error) {
	roles := Roles{Primary: 0, Breakdown: NoBreakdown, Value: CountValue}
	var err error

	lookup := func(name string, dst *int) {
		if err == nil && name != "" {
			*dst, err = d.Column(name)
		}
	}
	lookup(n.Primary, &roles.Primary)
	lookup(n.Breakdown, &roles.Breakdown)
	lookup(n.Value, &roles.Value)
	if err != nil {
		return nil, err
	}

	if n.Display == nil {
		skip := []int{roles.Breakdown}
		if roles.Value != roles.Primary {
			skip = append(skip, roles.Value)
		}
		roles.Display = d.except(skip...)
	} else {
		for _, name := range n.Display {
			i, err := d.Column(name)
			if err != nil {
				return nil, err
			}
			roles.Display = append(roles.Display, i)
		}
	}
	return d.View(roles)
}
