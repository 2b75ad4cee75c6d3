package polisher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggregationFixture(typ Type, ranks []uint32, ids []uint32, status []bool) *Polisher {
	windows := make([]*Window, len(ranks))
	for i := range ranks {
		w := NewWindow(ids[i], ranks[i], 0, []byte("AAAA"), nil)
		w.SetConsensus(fmt.Sprintf("W%d.", i), status[i])
		windows[i] = w
	}
	return &Polisher{
		cfg:       Config{Type: typ},
		targets:   []*Sequence{NewSequence("tgt0", nil, nil), NewSequence("tgt1", nil, nil)},
		coverages: []uint32{10, 7},
		windows:   windows,
		status:    status,
	}
}

func TestAggregateGroups(t *testing.T) {
	// two groups of sizes 3 and 2
	p := aggregationFixture(TypeContig,
		[]uint32{0, 1, 2, 0, 1},
		[]uint32{0, 0, 0, 1, 1},
		[]bool{true, false, true, true, false})

	var dst []*Sequence
	p.collectResults(&dst, true)

	require.Len(t, dst, 2, "both groups have ratio > 0 and survive the drop policy")
	assert.Equal(t, "tgt0 LN:i:9 RC:i:10 XC:f:0.666667", dst[0].Name)
	assert.Equal(t, "W0.W1.W2.", string(dst[0].Data))
	assert.Equal(t, "tgt1 LN:i:6 RC:i:7 XC:f:0.500000", dst[1].Name)
	assert.Equal(t, "W3.W4.", string(dst[1].Data))

	assert.Nil(t, p.windows, "window collection is consumed on return")
}

func TestAggregateDropsUnpolishedGroups(t *testing.T) {
	ranks := []uint32{0, 0, 1}
	ids := []uint32{0, 1, 1}
	status := []bool{false, true, false}

	t.Run("drop enabled", func(t *testing.T) {
		p := aggregationFixture(TypeContig, ranks, ids, status)
		var dst []*Sequence
		p.collectResults(&dst, true)
		require.Len(t, dst, 1)
		assert.Contains(t, dst[0].Name, "tgt1")
	})

	t.Run("drop disabled", func(t *testing.T) {
		p := aggregationFixture(TypeContig, ranks, ids, status)
		var dst []*Sequence
		p.collectResults(&dst, false)
		require.Len(t, dst, 2, "unpolished groups still contribute their content")
	})
}

func TestAggregateFragmentTag(t *testing.T) {
	p := aggregationFixture(TypeFragment, []uint32{0}, []uint32{0}, []bool{true})
	var dst []*Sequence
	p.collectResults(&dst, false)
	require.Len(t, dst, 1)
	assert.Equal(t, "tgt0r LN:i:3 RC:i:10 XC:f:1.000000", dst[0].Name)
}

func TestAggregateReleasesWindows(t *testing.T) {
	p := aggregationFixture(TypeContig, []uint32{0, 1}, []uint32{0, 0}, []bool{true, true})
	windows := p.windows
	var dst []*Sequence
	p.collectResults(&dst, false)
	for _, w := range windows {
		assert.Nil(t, w.Layers())
		assert.Nil(t, w.Backbone)
	}
}
