// Package signal holds sampled function tables: a shared ascending input
// axis and one output column per function.
package signal

import (
	"errors"
	"fmt"
	"sort"

	"fitmatch/pkg/math/vector"
)

// ErrOutOfDomain is returned when a signal is evaluated at an input
// outside the sampled axis range.
var ErrOutOfDomain = errors.New("input is outside the sampled axis range")

// Signal is one output column of a table, identified by its 1-based
// column index.
type Signal struct {
	ID     int      `json:"id"`
	Values vector.V `json:"values"`
}

// Table is a set of signals sampled on one shared input axis.
type Table struct {
	Axis    []float64 `json:"axis"`
	Signals []Signal  `json:"signals"`
}

func New(axis []float64) *Table {
	return &Table{Axis: axis}
}

// Append adds an output column. The column length must match the axis;
// the table stores its own copy of the values.
func (t *Table) Append(id int, values vector.V) error {
	if len(values) != len(t.Axis) {
		return fmt.Errorf("signal %d has %d samples, axis has %d", id, len(values), len(t.Axis))
	}
	t.Signals = append(t.Signals, Signal{ID: id, Values: values.Copy()})
	return nil
}

// Len returns the number of sample points on the axis.
func (t *Table) Len() int {
	return len(t.Axis)
}

// Signal returns the column with the given id.
func (t *Table) Signal(id int) (Signal, bool) {
	for i := range t.Signals {
		if t.Signals[i].ID == id {
			return t.Signals[i], true
		}
	}
	return Signal{}, false
}

// Validate checks the table invariants: a non-empty, strictly ascending
// axis and one value per sample point in every column.
func (t *Table) Validate() error {
	if len(t.Axis) == 0 {
		return fmt.Errorf("table has an empty axis")
	}
	for i := 1; i < len(t.Axis); i++ {
		if t.Axis[i] <= t.Axis[i-1] {
			return fmt.Errorf("axis is not strictly ascending at sample %d", i)
		}
	}
	for i := range t.Signals {
		if len(t.Signals[i].Values) != len(t.Axis) {
			return fmt.Errorf(
				"signal %d has %d samples, axis has %d",
				t.Signals[i].ID, len(t.Signals[i].Values), len(t.Axis),
			)
		}
	}
	return nil
}

// AxisEqual reports whether both tables are sampled on an identical axis:
// same length, same values, same order.
func (t *Table) AxisEqual(other *Table) bool {
	if other == nil {
		return false
	}
	return vector.V(t.Axis).Equal(vector.V(other.Axis))
}

// EvalAt evaluates the signal with the given id at an arbitrary input.
// Inputs coinciding with a sampled point are looked up exactly; inputs
// between two sampled points are linearly interpolated; inputs outside
// the axis range fail with ErrOutOfDomain.
func (t *Table) EvalAt(id int, x float64) (float64, error) {
	sig, ok := t.Signal(id)
	if !ok {
		return 0, fmt.Errorf("no signal with id %d", id)
	}
	if len(t.Axis) == 0 {
		return 0, fmt.Errorf("table has an empty axis")
	}
	if x < t.Axis[0] || x > t.Axis[len(t.Axis)-1] {
		return 0, fmt.Errorf("evaluate signal %d at %v: %w", id, x, ErrOutOfDomain)
	}

	i := sort.SearchFloat64s(t.Axis, x)
	if i < len(t.Axis) && t.Axis[i] == x {
		return sig.Values[i], nil
	}

	// x lies strictly between Axis[i-1] and Axis[i]
	x0, x1 := t.Axis[i-1], t.Axis[i]
	y0, y1 := sig.Values[i-1], sig.Values[i]
	return y0 + (y1-y0)*(x-x0)/(x1-x0), nil
}
