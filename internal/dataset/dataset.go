// Package dataset reads the delimited input tables: a shared x column
// followed by one or more y columns.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"fitmatch/internal/logging"
	"fitmatch/internal/matcher"
	"fitmatch/internal/signal"
)

// LoadTable reads a table file with header x,y1..yN into a signal table.
// Rows with unparsable or NaN values and rows repeating an already seen
// x are dropped; remaining rows are sorted by x and the table validated.
func LoadTable(ctx context.Context, name string) (*signal.Table, error) {
	logger := logging.FromContext(ctx)

	rows, columns, err := readRows(name)
	if err != nil {
		return nil, err
	}
	rows, dropped := clean(rows)
	if dropped > 0 {
		logger.Infof("cleaned %s: removed %d invalid rows", name, dropped)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no usable rows", name)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })

	axis := make([]float64, len(rows))
	for i := range rows {
		axis[i] = rows[i][0]
	}
	table := signal.New(axis)
	for col := 1; col < columns; col++ {
		values := make([]float64, len(rows))
		for i := range rows {
			values[i] = rows[i][col]
		}
		if err := table.Append(col, values); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	logger.Infof("loaded %d rows, %d signals from %s", len(rows), columns-1, name)

	return table, nil
}

// LoadObservations reads a test file with header x,y into independent
// observations. No cleaning beyond parsing: test points are not bound to
// the table axis invariants.
func LoadObservations(ctx context.Context, name string) ([]matcher.Observation, error) {
	logger := logging.FromContext(ctx)

	rows, columns, err := readRows(name)
	if err != nil {
		return nil, err
	}
	if columns != 2 {
		return nil, fmt.Errorf("%s: want columns x,y, got %d columns", name, columns)
	}

	observations := make([]matcher.Observation, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if math.IsNaN(row[0]) || math.IsNaN(row[1]) {
			dropped++
			continue
		}
		observations = append(observations, matcher.Observation{X: row[0], Y: row[1]})
	}
	if dropped > 0 {
		logger.Infof("cleaned %s: removed %d invalid rows", name, dropped)
	}

	logger.Infof("loaded %d observations from %s", len(observations), name)

	return observations, nil
}

func readRows(name string) ([][]float64, int, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read %s header: %w", name, err)
	}
	if len(header) < 2 || header[0] != "x" {
		return nil, 0, fmt.Errorf("%s: want header starting with x and at least one y column", name)
	}
	columns := len(header)

	var rows [][]float64
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", name, err)
		}
		row := make([]float64, columns)
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				v = math.NaN()
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	return rows, columns, nil
}

// clean drops rows containing NaN values and rows repeating an already
// seen x value, keeping the first occurrence.
func clean(rows [][]float64) ([][]float64, int) {
	seen := make(map[float64]struct{}, len(rows))
	kept := rows[:0]
	dropped := 0
RowLoop:
	for _, row := range rows {
		for _, v := range row {
			if math.IsNaN(v) {
				dropped++
				continue RowLoop
			}
		}
		if _, ok := seen[row[0]]; ok {
			dropped++
			continue
		}
		seen[row[0]] = struct{}{}
		kept = append(kept, row)
	}
	return kept, dropped
}
