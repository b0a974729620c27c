package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// ReadLabels reads one integer cluster label per line.
func ReadLabels(r io.Reader) ([]int, error) {
	scanner := bufio.NewScanner(r)
	var labels []int
	line := 0
	for scanner.Scan() {
		line++
		parts := fields(scanner.Text())
		if parts == nil {
			continue
		}
		if len(parts) != 1 {
			return nil, fmt.Errorf("%w: line %d: expected one label, got %d fields", models.ErrInvalidParameter, line, len(parts))
		}
		label, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad label %q", models.ErrInvalidParameter, line, parts[0])
		}
		labels = append(labels, label)
	}
	return labels, scanner.Err()
}

// ReadLabelsFile loads a label file.
func ReadLabelsFile(filename string) ([]int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadLabels(file)
}

// WriteLabels writes one label per line.
func WriteLabels(w io.Writer, labels []int) error {
	bw := bufio.NewWriter(w)
	for _, l := range labels {
		if _, err := fmt.Fprintln(bw, l); err != nil {
			return err
		}
	}
	return bw.Flush()
}
