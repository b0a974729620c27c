package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// ReadPoints reads one point per line, coordinates separated by whitespace
// or commas. When hasIDs is set the first column is an integer id; otherwise
// points are numbered by line order. Every point must have the same
// dimension.
func ReadPoints(r io.Reader, hasIDs bool) (*models.PointSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		data []float64
		ids  []int64
		dim  = -1
		line int
	)
	for scanner.Scan() {
		line++
		parts := fields(scanner.Text())
		if parts == nil {
			continue
		}
		if hasIDs {
			id, err := strconv.ParseInt(parts[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad id %q", models.ErrInvalidParameter, line, parts[0])
			}
			ids = append(ids, id)
			parts = parts[1:]
		}

		if dim < 0 {
			dim = len(parts)
		}
		if len(parts) != dim || dim == 0 {
			return nil, fmt.Errorf("%w: line %d: expected %d coordinates, got %d",
				models.ErrInvalidParameter, line, dim, len(parts))
		}
		for _, p := range parts {
			x, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad coordinate %q", models.ErrInvalidParameter, line, p)
			}
			data = append(data, x)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if dim < 0 {
		return nil, fmt.Errorf("%w: no points found", models.ErrInvalidParameter)
	}

	return models.NewPointSet(dim, data, ids)
}

// ReadPointsFile loads a point file.
func ReadPointsFile(filename string, hasIDs bool) (*models.PointSet, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	points, err := ReadPoints(file, hasIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return points, nil
}
