package polisher

import (
	"fmt"

	"github.com/SHuang-Broad/racon/align"
)

// Overlap links a query (read) sequence to the region of a target sequence it
// covers. Coordinates follow PAF conventions: half-open, on the forward
// strand of each sequence. For reverse-strand overlaps the query coordinates
// are transformed at load time into reverse-complement space so that
// downstream alignment always works on forward-oriented data.
type Overlap struct {
	Query  *Sequence
	Target *Sequence

	QID     uint32
	QBegin  uint32
	QEnd    uint32
	QLength uint32

	TID     uint32
	TBegin  uint32
	TEnd    uint32
	TLength uint32

	Strand  byte // '+' or '-'
	Matches uint32
	Length  uint32

	BreakingPoints []align.BreakingPoint
}

// ErrorRate estimates the fraction of non-matching bases in the overlap.
func (o *Overlap) ErrorRate() float64 {
	if o.Length == 0 {
		return 1
	}
	return 1 - float64(o.Matches)/float64(o.Length)
}

// QueryData returns the overlap's query bases in target orientation.
func (o *Overlap) QueryData() []byte {
	if o.Strand == '-' {
		return o.Query.ReverseComplement()
	}
	return o.Query.Data
}

// QueryQuality returns the query qualities in target orientation, or nil.
func (o *Overlap) QueryQuality() []byte {
	if o.Strand == '-' {
		return o.Query.ReverseQuality()
	}
	return o.Query.Quality
}

// FindBreakingPoints aligns the overlapping regions and records the window
// boundary crossings on the overlap. The side effect on the shared overlap is
// the whole point: window construction consumes the recorded points.
func (o *Overlap) FindBreakingPoints(e *align.Engine, windowLength uint32) error {
	q := o.QueryData()
	if o.QEnd > uint32(len(q)) || o.TEnd > uint32(len(o.Target.Data)) {
		return fmt.Errorf("overlap %s/%s: coordinates exceed sequence bounds", o.Query.Name, o.Target.Name)
	}
	path, _, err := e.Align(q[o.QBegin:o.QEnd], o.Target.Data[o.TBegin:o.TEnd])
	if err != nil {
		return fmt.Errorf("overlap %s/%s: %w", o.Query.Name, o.Target.Name, err)
	}
	o.BreakingPoints = align.BreakingPoints(path, o.QBegin, o.TBegin, windowLength)
	return nil
}
