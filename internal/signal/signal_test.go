package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl := New([]float64{0, 1, 2, 3})
	require.NoError(t, tbl.Append(1, []float64{0, 1, 4, 9}))
	require.NoError(t, tbl.Append(2, []float64{0, 2, 5, 10}))
	require.NoError(t, tbl.Validate())
	return tbl
}

func TestTableEvalAtGridPoint(t *testing.T) {
	tbl := newTestTable(t)

	got, err := tbl.EvalAt(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got)

	got, err = tbl.EvalAt(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = tbl.EvalAt(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 9.0, got)
}

func TestTableEvalAtInterpolated(t *testing.T) {
	tbl := newTestTable(t)

	got, err := tbl.EvalAt(1, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)

	got, err = tbl.EvalAt(2, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestTableEvalAtOutOfDomain(t *testing.T) {
	tbl := newTestTable(t)

	_, err := tbl.EvalAt(1, -0.5)
	assert.ErrorIs(t, err, ErrOutOfDomain)

	_, err = tbl.EvalAt(1, 3.5)
	assert.ErrorIs(t, err, ErrOutOfDomain)
}

func TestTableEvalAtUnknownSignal(t *testing.T) {
	tbl := newTestTable(t)

	_, err := tbl.EvalAt(42, 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrOutOfDomain))
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   *Table
		wantErr bool
	}{
		{name: "ascending_axis", table: &Table{Axis: []float64{0, 1, 2}}, wantErr: false},
		{name: "empty_axis", table: &Table{}, wantErr: true},
		{name: "descending_axis", table: &Table{Axis: []float64{2, 1}}, wantErr: true},
		{name: "duplicate_axis_value", table: &Table{Axis: []float64{0, 1, 1, 2}}, wantErr: true},
		{
			name: "column_length_mismatch",
			table: &Table{
				Axis:    []float64{0, 1, 2},
				Signals: []Signal{{ID: 1, Values: []float64{1, 2}}},
			},
			wantErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.table.Validate()
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTableAxisEqual(t *testing.T) {
	tbl := newTestTable(t)

	assert.True(t, tbl.AxisEqual(New([]float64{0, 1, 2, 3})))
	assert.False(t, tbl.AxisEqual(New([]float64{0, 1, 2})))
	assert.False(t, tbl.AxisEqual(New([]float64{0, 1, 2, 4})))
	assert.False(t, tbl.AxisEqual(nil))
}

func TestTableAppendLengthMismatch(t *testing.T) {
	tbl := New([]float64{0, 1})
	assert.Error(t, tbl.Append(1, []float64{1, 2, 3}))
}
