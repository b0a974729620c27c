// Package parser reads and writes the text formats used by the command line
// tools: edge lists and point files.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// EdgeListReader streams edges from an edge list. Each line holds
// "u v" or "u v w", separated by whitespace or commas. Blank lines and lines
// starting with # or // are skipped; the weight defaults to 1.
type EdgeListReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewEdgeListReader returns a reader over r.
func NewEdgeListReader(r io.Reader) *EdgeListReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &EdgeListReader{scanner: scanner}
}

// Next implements graph.EdgeSource.
func (r *EdgeListReader) Next() (graph.Edge, error) {
	for r.scanner.Scan() {
		r.line++
		parts := fields(r.scanner.Text())
		if parts == nil {
			continue
		}
		if len(parts) < 2 || len(parts) > 3 {
			return graph.Edge{}, fmt.Errorf("%w: line %d: expected \"u v [w]\", got %d fields",
				models.ErrInvalidParameter, r.line, len(parts))
		}

		from, err := strconv.Atoi(parts[0])
		if err != nil {
			return graph.Edge{}, fmt.Errorf("%w: line %d: bad vertex %q", models.ErrInvalidParameter, r.line, parts[0])
		}
		to, err := strconv.Atoi(parts[1])
		if err != nil {
			return graph.Edge{}, fmt.Errorf("%w: line %d: bad vertex %q", models.ErrInvalidParameter, r.line, parts[1])
		}
		weight := 1.0
		if len(parts) == 3 {
			if weight, err = strconv.ParseFloat(parts[2], 64); err != nil {
				return graph.Edge{}, fmt.Errorf("%w: line %d: bad weight %q", models.ErrInvalidParameter, r.line, parts[2])
			}
		}
		return graph.Edge{From: from, To: to, Weight: weight}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return graph.Edge{}, err
	}
	return graph.Edge{}, io.EOF
}

// ReadEdgeListFile loads a graph from an edge list file, inferring the
// vertex count from the largest id.
func ReadEdgeListFile(filename string) (*graph.Graph, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	g, err := graph.ReadFrom(NewEdgeListReader(file), -1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return g, nil
}

// WriteEdgeList writes every edge of g once as "u v w".
func WriteEdgeList(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	for _, e := range g.Edges() {
		if _, err := fmt.Fprintf(bw, "%d %d %s\n", e.From, e.To, strconv.FormatFloat(e.Weight, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveEdgeListFile writes g to filename.
func SaveEdgeListFile(filename string, g *graph.Graph) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return WriteEdgeList(file, g)
}

// fields splits a data line on whitespace and commas. It returns nil for
// blank and comment lines.
func fields(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
		return nil
	}
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
