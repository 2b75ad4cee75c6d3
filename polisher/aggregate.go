package polisher

import (
	"fmt"
	"strings"
)

// collectResults stitches per-window consensus text into one output sequence
// per window group, walking windows in original order regardless of the
// completion order of the phases that produced them. A group runs from a
// rank-zero window up to the window before the next rank-zero one. Windows
// release their stored results as they are folded in.
func (p *Polisher) collectResults(dst *[]*Sequence, dropUnpolished bool) {
	var (
		buf      strings.Builder
		polished uint32
	)

	for i, w := range p.windows {
		if p.status[i] {
			polished++
		}
		buf.WriteString(w.ConsensusText())

		last := i == len(p.windows)-1 || p.windows[i+1].Rank == 0
		if last {
			ratio := float64(polished) / float64(w.Rank+1)
			if !dropUnpolished || ratio > 0 {
				data := buf.String()
				tag := ""
				if p.cfg.Type == TypeFragment {
					tag = "r"
				}
				tag += fmt.Sprintf(" LN:i:%d", len(data))
				tag += fmt.Sprintf(" RC:i:%d", p.coverages[w.ID])
				tag += fmt.Sprintf(" XC:f:%f", ratio)
				*dst = append(*dst, NewSequence(p.targets[w.ID].Name+tag, []byte(data), nil))
			}
			polished = 0
			buf.Reset()
		}
		w.Release()
	}

	p.windows = nil
	p.status = nil
}
