package vector

import (
	"fmt"
	"math"
)

var ErrDimNotEqual = fmt.Errorf("vectors dimension is not equal")

// V is a sample vector: the output column of one signal.
type V []float64

func (v V) Points() []float64 {
	return v
}

func (v V) Copy() V {
	var v1 = make(V, len(v))
	copy(v1, v)
	return v1
}

func (v V) Equal(vec V) bool {
	if len(v) != len(vec) {
		return false
	}
	for i, value := range v {
		if vec[i] != value {
			return false
		}
	}
	return true
}

// SquaredError returns the sum of squared pointwise differences between
// two sample vectors of equal length.
func SquaredError(vec, vec1 []float64) (float64, error) {
	var s float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec); i++ {
		d := vec[i] - vec1[i]
		s += d * d
	}
	return s, nil
}

// MaxAbsDeviation returns the largest absolute pointwise difference
// between two sample vectors of equal length.
func MaxAbsDeviation(vec, vec1 []float64) (float64, error) {
	var absDeviation, deviation float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec); i++ {
		absDeviation = math.Abs(vec[i] - vec1[i])
		if deviation < absDeviation {
			deviation = absDeviation
		}
	}
	return deviation, nil
}
