package polisher

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dgryski/go-farm"
	msgpack "github.com/shamaton/msgpack/v2"
)

// TraceHeader identifies a polishing run inside a trace stream.
type TraceHeader struct {
	RunID       string
	InputDigest uint64
	Targets     int
}

// TraceEvent records one fill/execute cycle of a scheduler worker.
type TraceEvent struct {
	Phase    string // "align" or "consensus"
	Device   int
	Start    int
	End      int
	Duration time.Duration
}

// TraceWriter serializes run events with msgpack. Writes are serialized with
// a mutex so concurrent scheduler workers can record directly.
type TraceWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTraceWriter(w io.Writer, header TraceHeader) (*TraceWriter, error) {
	if err := msgpack.MarshalWrite(w, header); err != nil {
		return nil, err
	}
	return &TraceWriter{w: w}, nil
}

func (t *TraceWriter) Record(ev TraceEvent) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return msgpack.MarshalWrite(t.w, ev)
}

// ReadTrace decodes a full trace stream.
func ReadTrace(r io.Reader) (TraceHeader, []TraceEvent, error) {
	var header TraceHeader
	if err := msgpack.UnmarshalRead(r, &header); err != nil {
		return header, nil, err
	}
	var events []TraceEvent
	for {
		var ev TraceEvent
		err := msgpack.UnmarshalRead(r, &ev)
		if errors.Is(err, io.EOF) {
			return header, events, nil
		}
		if err != nil {
			return header, events, err
		}
		events = append(events, ev)
	}
}

// inputDigest hashes the target names and lengths so a trace can be matched
// back to the inputs that produced it.
func inputDigest(targets []*Sequence) uint64 {
	var buf []byte
	for _, t := range targets {
		buf = append(buf, t.Name...)
		buf = append(buf, byte(len(t.Data)), byte(len(t.Data)>>8), byte(len(t.Data)>>16), byte(len(t.Data)>>24))
	}
	return farm.Hash64(buf)
}
