package polisher

// Sequence is a named nucleotide sequence with optional per-base qualities.
type Sequence struct {
	Name    string
	Data    []byte
	Quality []byte

	rc []byte
}

func NewSequence(name string, data, quality []byte) *Sequence {
	return &Sequence{Name: name, Data: data, Quality: quality}
}

var complement = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 'N'
	}
	for b, c := range map[byte]byte{
		'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C',
		'a': 't', 't': 'a', 'c': 'g', 'g': 'c', 'N': 'N', 'n': 'n',
	} {
		t[b] = c
	}
	return t
}()

// ReverseComplement returns the cached reverse complement, computing it on
// first use. Callers must ensure the first call is not concurrent; the
// polisher precomputes it for all reverse-strand queries before the parallel
// phases start.
func (s *Sequence) ReverseComplement() []byte {
	if s.rc == nil {
		rc := make([]byte, len(s.Data))
		for i, b := range s.Data {
			rc[len(s.Data)-1-i] = complement[b]
		}
		s.rc = rc
	}
	return s.rc
}

// ReverseQuality returns the quality string reversed to match the reverse
// complement orientation, or nil if the sequence carries no qualities.
func (s *Sequence) ReverseQuality() []byte {
	if s.Quality == nil {
		return nil
	}
	rq := make([]byte, len(s.Quality))
	for i, q := range s.Quality {
		rq[len(s.Quality)-1-i] = q
	}
	return rq
}
