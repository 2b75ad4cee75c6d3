package align

// Layer is one read fragment spanning part of a window backbone.
// Begin and End are positions within the backbone (half-open).
type Layer struct {
	Sequence []byte
	Quality  []byte
	Begin    uint32
	End      uint32
}

// base vote slots: A, C, G, T, deletion
var baseSlot = [256]int8{}

func init() {
	for i := range baseSlot {
		baseSlot[i] = -1
	}
	for b, s := range map[byte]int8{'A': 0, 'a': 0, 'C': 1, 'c': 1, 'G': 2, 'g': 2, 'T': 3, 't': 3} {
		baseSlot[b] = s
	}
}

var slotBase = [4]byte{'A', 'C', 'G', 'T'}

// Consensus derives a consensus string for a window backbone from its layers.
// Each layer is aligned against the backbone span it covers and votes per
// column; the backbone itself votes once per column. Insertions relative to
// the backbone are not called. A window with fewer than two layers cannot be
// polished and keeps its backbone text.
func (e *Engine) Consensus(backbone []byte, layers []Layer) (string, bool) {
	if len(layers) < 2 {
		return string(backbone), false
	}

	const del = 4
	votes := make([][5]uint32, len(backbone))
	for i, b := range backbone {
		if s := baseSlot[b]; s >= 0 {
			votes[i][s]++
		}
	}

	aligned := 0
	for _, l := range layers {
		if len(l.Sequence) == 0 || l.End > uint32(len(backbone)) || l.Begin >= l.End {
			continue
		}
		span := backbone[l.Begin:l.End]
		path, _, err := e.Align(l.Sequence, span)
		if err != nil {
			continue
		}
		qi, ti := 0, int(l.Begin)
		for _, op := range path {
			switch op {
			case OpMatch, OpMismatch:
				weight := uint32(1)
				if len(l.Quality) == len(l.Sequence) && l.Quality[qi] >= qualityFloor {
					weight = 2
				}
				if s := baseSlot[l.Sequence[qi]]; s >= 0 {
					votes[ti][s] += weight
				}
				qi++
				ti++
			case OpInsert:
				qi++
			case OpDelete:
				votes[ti][del]++
				ti++
			}
		}
		aligned++
	}
	if aligned < 2 {
		return string(backbone), false
	}

	out := make([]byte, 0, len(backbone))
	for i := range votes {
		best, bestCount := -1, uint32(0)
		for s := 0; s < 5; s++ {
			if votes[i][s] > bestCount {
				best, bestCount = s, votes[i][s]
			}
		}
		switch {
		case best == del:
			// deleted column, emit nothing
		case best >= 0:
			out = append(out, slotBase[best])
		default:
			out = append(out, backbone[i])
		}
	}
	return string(out), true
}

// qualityFloor is the phred+33 value above which a layer base gets extra
// voting weight.
const qualityFloor = byte('!' + 10)
