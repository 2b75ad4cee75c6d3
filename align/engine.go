package align

import "fmt"

// Scoring holds the pairwise alignment parameters.
type Scoring struct {
	Match    int8
	Mismatch int8
	Gap      int8
}

// Op is a single step of an alignment path.
type Op byte

const (
	OpMatch    Op = iota // bases consumed on both sequences, equal
	OpMismatch           // bases consumed on both sequences, different
	OpInsert             // base consumed on the query only
	OpDelete             // base consumed on the target only
)

// Engine computes pairwise global alignments and window consensus on the CPU.
// An Engine is not safe for concurrent use; workers own one engine each.
type Engine struct {
	scoring Scoring
	banded  bool

	// scratch matrix, grown on demand
	scores []int32
	moves  []Op
}

func NewEngine(scoring Scoring, banded bool) *Engine {
	return &Engine{scoring: scoring, banded: banded}
}

func (e *Engine) Scoring() Scoring { return e.scoring }

const negInf = int32(-1 << 30)

// Align computes a global alignment of query against target and returns the
// alignment path in query/target order together with its score.
func (e *Engine) Align(query, target []byte) ([]Op, int32, error) {
	n, m := len(query), len(target)
	if n == 0 || m == 0 {
		return nil, 0, fmt.Errorf("align: empty sequence (query %d, target %d)", n, m)
	}

	band := m + n
	if e.banded {
		band = abs(n-m) + 64
	}

	w := m + 1
	size := (n + 1) * w
	if cap(e.scores) < size {
		e.scores = make([]int32, size)
		e.moves = make([]Op, size)
	}
	scores := e.scores[:size]
	moves := e.moves[:size]

	gap := int32(e.scoring.Gap)
	scores[0] = 0
	for j := 1; j <= m; j++ {
		if j > band {
			scores[j] = negInf
			continue
		}
		scores[j] = int32(j) * gap
		moves[j] = OpDelete
	}
	for i := 1; i <= n; i++ {
		row := i * w
		prev := row - w
		for j := 0; j <= m; j++ {
			if abs(i-j) > band {
				scores[row+j] = negInf
				continue
			}
			if j == 0 {
				scores[row] = int32(i) * gap
				moves[row] = OpInsert
				continue
			}
			diag := scores[prev+j-1]
			op := OpMatch
			if query[i-1] != target[j-1] {
				diag += int32(e.scoring.Mismatch)
				op = OpMismatch
			} else {
				diag += int32(e.scoring.Match)
			}
			best, move := diag, op
			if up := scores[prev+j] + gap; up > best {
				best, move = up, OpInsert
			}
			if left := scores[row+j-1] + gap; left > best {
				best, move = left, OpDelete
			}
			scores[row+j] = best
			moves[row+j] = move
		}
	}

	// Traceback from (n, m).
	path := make([]Op, 0, n+m)
	i, j := n, m
	for i > 0 || j > 0 {
		if i == 0 {
			path = append(path, OpDelete)
			j--
			continue
		}
		if j == 0 {
			path = append(path, OpInsert)
			i--
			continue
		}
		op := moves[i*w+j]
		path = append(path, op)
		switch op {
		case OpMatch, OpMismatch:
			i--
			j--
		case OpInsert:
			i--
		case OpDelete:
			j--
		}
	}
	reverse(path)
	return path, scores[n*w+m], nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func reverse(ops []Op) {
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
}
