package vector

import "testing"

func TestSquaredError(t *testing.T) {
	tests := []struct {
		name     string
		p        []float64
		p1       []float64
		expected float64
	}{
		{name: "positive", p: []float64{1.5, 2.0}, p1: []float64{2.0, 3.0}, expected: 1.25},
		{name: "positive", p: []float64{10, 2.0}, p1: []float64{5, 3.0}, expected: 26},
		{name: "positive", p: []float64{0, 1, 4, 9}, p1: []float64{0, 2, 5, 10}, expected: 3},
		{name: "err", p: []float64{5, 2.0}, p1: []float64{3}, expected: 0},
		{name: "err", p: []float64{2.0}, p1: []float64{3, 4.0}, expected: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := SquaredError(test.p, test.p1)
			if test.name == "positive" {
				if err != nil {
					t.Errorf("the error should not be returned")
				}
				if got != test.expected {
					t.Errorf(
						"the squared error obtained does not correspond to the expected value, got %f, expected %f",
						got, test.expected)
				}
			}
			if test.name == "err" {
				if err == nil {
					t.Errorf("the dimension of the vectors is different, an error must be output %v", ErrDimNotEqual)
				}
			}
		})
	}
}

func TestCopy(t *testing.T) {
	v := V{1, 2, 3}
	v1 := v.Copy()
	if !v.Equal(v1) {
		t.Errorf("calling the Copy method, got: %v, expected: %v", v1, v)
	}
	v1[0] = 9
	if v[0] != 1 {
		t.Errorf("calling the Copy method, the source vector was mutated, got: %v, expected: %v", v[0], 1.0)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		p        V
		p1       V
		expected bool
	}{
		{name: "equal", p: V{1, 2}, p1: V{1, 2}, expected: true},
		{name: "not_equal_values", p: V{1, 2}, p1: V{1, 3}, expected: false},
		{name: "not_equal_len", p: V{1, 2}, p1: V{1}, expected: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.p.Equal(test.p1); got != test.expected {
				t.Errorf("calling the Equal method, got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestMaxAbsDeviation(t *testing.T) {
	tests := []struct {
		name     string
		p        []float64
		p1       []float64
		expected float64
	}{
		{name: "positive", p: []float64{1.2, 2.0}, p1: []float64{2.0, 3.0}, expected: 1},
		{name: "positive", p: []float64{10, 2.0}, p1: []float64{5, 3.0}, expected: 5},
		{name: "positive", p: []float64{0, 1, 4, 9}, p1: []float64{0, 1, 4, 9}, expected: 0},
		{name: "err", p: []float64{5, 2.0}, p1: []float64{3}, expected: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := MaxAbsDeviation(test.p, test.p1)
			if test.name == "positive" {
				if err != nil {
					t.Errorf("the error should not be returned")
				}
				if got != test.expected {
					t.Errorf(
						"the deviation obtained does not correspond to the expected deviation, got %f, expected %f",
						got, test.expected)
				}
			}
			if test.name == "err" {
				if err == nil {
					t.Errorf("the dimension of the vectors is different, an error must be output %v", ErrDimNotEqual)
				}
			}
		})
	}
}
