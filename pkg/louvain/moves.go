package louvain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// MoveEvent records one node changing community. At levels above 0 the
// node is a community of the previous level.
type MoveEvent struct {
	Move     int     `json:"move"`
	Level    int     `json:"level"`
	Node     int     `json:"node"`
	FromComm int     `json:"from_comm"`
	ToComm   int     `json:"to_comm"`
	Gain     float64 `json:"gain"`
}

// MoveTracker writes move events as JSON lines. A nil tracker ignores
// every call.
type MoveTracker struct {
	closer  io.Closer
	encoder *json.Encoder
	moves   int
	err     error
}

// NewMoveTracker writes events to w.
func NewMoveTracker(w io.Writer) *MoveTracker {
	return &MoveTracker{encoder: json.NewEncoder(w)}
}

// NewMoveTrackerFile creates filename and writes events to it.
func NewMoveTrackerFile(filename string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create move log: %w", err)
	}
	mt := NewMoveTracker(file)
	mt.closer = file
	return mt, nil
}

// LogMove records a move. The first write error is kept and reported by
// Close; later events are dropped.
func (mt *MoveTracker) LogMove(level, node, fromComm, toComm int, gain float64) {
	if mt == nil || mt.err != nil {
		return
	}
	mt.moves++
	mt.err = mt.encoder.Encode(MoveEvent{
		Move:     mt.moves,
		Level:    level,
		Node:     node,
		FromComm: fromComm,
		ToComm:   toComm,
		Gain:     gain,
	})
}

// Moves returns the number of events logged.
func (mt *MoveTracker) Moves() int {
	if mt == nil {
		return 0
	}
	return mt.moves
}

// Close flushes the underlying file, if any, and returns the first error.
func (mt *MoveTracker) Close() error {
	if mt == nil {
		return nil
	}
	if mt.closer != nil {
		if err := mt.closer.Close(); err != nil && mt.err == nil {
			mt.err = err
		}
		mt.closer = nil
	}
	return mt.err
}
