package polisher

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SHuang-Broad/racon/align"
)

// Polisher distributes consensus-polishing work across a pool of accelerated
// batch executors with a CPU fallback, and reassembles per-window results
// into polished target sequences.
type Polisher struct {
	cfg     Config
	backend Backend
	runID   string

	targets   []*Sequence
	reads     []*Sequence
	coverages []uint32
	windows   []*Window
	status    []bool

	fallback *fallbackPool
	reporter Reporter
	trace    *TraceWriter
	traceOut io.Writer
}

// New builds a Polisher over an accelerated backend. A backend with no
// devices is a fatal environment error at construction time.
func New(cfg Config, backend Backend) (*Polisher, error) {
	cfg = cfg.withDefaults()
	if backend.Devices() < 1 {
		return nil, ErrNoAccelerators
	}

	scoring := align.Scoring{Match: cfg.Match, Mismatch: cfg.Mismatch, Gap: cfg.Gap}
	p := &Polisher{
		cfg:      cfg,
		backend:  backend,
		runID:    uuid.NewString(),
		fallback: newFallbackPool(cfg.FallbackWorkers, scoring, cfg.BandedAlignment),
		reporter: SilentReporter{},
	}

	log.Info().
		Str("run", p.runID).
		Int("devices", backend.Devices()).
		Int("batches", cfg.BatchCount).
		Msg("using accelerated devices for polishing")
	return p, nil
}

func (p *Polisher) RunID() string { return p.runID }

// SetReporter installs the progress reporter; the default is silent.
func (p *Polisher) SetReporter(r Reporter) {
	if r == nil {
		r = SilentReporter{}
	}
	p.reporter = r
}

// SetTraceOutput enables run tracing; the header is written when Initialize
// knows the inputs.
func (p *Polisher) SetTraceOutput(w io.Writer) { p.traceOut = w }

// WindowCount reports the windows awaiting polishing.
func (p *Polisher) WindowCount() int { return len(p.windows) }

// Initialize loads the run's inputs: it drops overlaps above the error
// threshold, binds overlap sequence references, computes per-target coverage,
// finds breaking points and splits the targets into windows with their read
// layers attached.
func (p *Polisher) Initialize(targets, reads []*Sequence, overlaps []*Overlap) error {
	p.targets = targets
	p.reads = reads
	p.coverages = make([]uint32, len(targets))

	kept := overlaps[:0]
	for _, o := range overlaps {
		if int(o.QID) >= len(reads) || int(o.TID) >= len(targets) {
			return fmt.Errorf("overlap references unknown sequence (query %d, target %d)", o.QID, o.TID)
		}
		if o.ErrorRate() > p.cfg.ErrorThreshold {
			continue
		}
		o.Query = reads[o.QID]
		o.Target = targets[o.TID]
		if o.Strand == '-' {
			// warm the cache before the parallel phases
			o.Query.ReverseComplement()
		}
		p.coverages[o.TID]++
		kept = append(kept, o)
	}
	log.Info().
		Int("total", len(overlaps)).
		Int("kept", len(kept)).
		Msg("filtered overlaps by error threshold")

	if p.traceOut != nil {
		tw, err := NewTraceWriter(p.traceOut, TraceHeader{
			RunID:       p.runID,
			InputDigest: inputDigest(targets),
			Targets:     len(targets),
		})
		if err != nil {
			return fmt.Errorf("trace: %w", err)
		}
		p.trace = tw
	}

	if err := p.FindOverlapBreakingPoints(kept); err != nil {
		return err
	}
	p.buildWindows(kept)

	log.Info().
		Int("targets", len(targets)).
		Int("windows", len(p.windows)).
		Msg("initialized windows")
	return nil
}

// FindOverlapBreakingPoints runs the accelerated alignment phase over the
// ordered overlap collection, mutating the overlaps in place, then re-runs
// the CPU breakpoint computation over the same collection. The accelerated
// pass's own breakpoints are overwritten; see DESIGN.md for why the CPU
// re-run is kept.
func (p *Polisher) FindOverlapBreakingPoints(overlaps []*Overlap) error {
	bins, err := binDevices(p.cfg.BatchCount, p.backend.Devices())
	if err != nil {
		return err
	}
	batches := make([]AlignerBatch, len(bins))
	for i, device := range bins {
		batches[i] = p.backend.NewAlignerBatch(device)
	}

	cursor := NewWorkCursor(overlaps)
	err = runBatches(cursor, batches,
		func(b AlignerBatch, o *Overlap) bool { return b.TryAdd(o) },
		func(b AlignerBatch, start, end int) error {
			began := time.Now()
			if err := b.AlignAll(); err != nil {
				return err
			}
			if err := b.FindBreakingPoints(p.cfg.WindowLength); err != nil {
				return err
			}
			return p.trace.Record(TraceEvent{
				Phase: "align", Device: b.Device(),
				Start: start, End: end, Duration: time.Since(began),
			})
		},
		nil,
	)
	if err != nil {
		return err
	}
	log.Info().Int("overlaps", len(overlaps)).Msg("aligned overlaps")

	return p.cpuBreakingPoints(overlaps)
}

// cpuBreakingPoints recomputes breakpoints on the CPU with the fallback
// pool's worker-bound engines.
func (p *Polisher) cpuBreakingPoints(overlaps []*Overlap) error {
	tasks := make(chan *Overlap, len(p.fallback.engines))
	var wg sync.WaitGroup
	for _, engine := range p.fallback.engines {
		wg.Add(1)
		go func(engine *align.Engine) {
			defer wg.Done()
			for o := range tasks {
				if err := o.FindBreakingPoints(engine, p.cfg.WindowLength); err != nil {
					log.Warn().Err(err).Msg("breakpoint computation failed, overlap skipped")
					o.BreakingPoints = nil
				}
			}
		}(engine)
	}
	for _, o := range overlaps {
		tasks <- o
	}
	close(tasks)
	wg.Wait()
	return nil
}

// buildWindows splits each target into fixed-length windows and attaches the
// overlap segments between consecutive breakpoints as layers.
func (p *Polisher) buildWindows(overlaps []*Overlap) {
	winLen := p.cfg.WindowLength
	offsets := make([]int, len(p.targets))
	for id, t := range p.targets {
		offsets[id] = len(p.windows)
		length := uint32(len(t.Data))
		for rank, start := uint32(0), uint32(0); start < length; rank, start = rank+1, start+winLen {
			end := start + winLen
			if end > length {
				end = length
			}
			var quality []byte
			if t.Quality != nil {
				quality = t.Quality[start:end]
			}
			p.windows = append(p.windows, NewWindow(uint32(id), rank, start, t.Data[start:end], quality))
		}
	}

	for _, o := range overlaps {
		points := o.BreakingPoints
		q := o.QueryData()
		qual := o.QueryQuality()
		for i := 0; i+1 < len(points); i++ {
			a, b := points[i], points[i+1]
			if b.Target <= a.Target || b.Query <= a.Query {
				continue
			}
			w := p.windows[offsets[o.TID]+int(a.Target/winLen)]
			winEnd := w.Start + uint32(len(w.Backbone))
			end := b.Target
			if end > winEnd {
				end = winEnd
			}
			if end <= a.Target {
				continue
			}
			seg := q[a.Query:b.Query]
			var segQual []byte
			if qual != nil {
				segQual = qual[a.Query:b.Query]
				if meanQuality(segQual) < p.cfg.QualityThreshold {
					continue
				}
			}
			w.AddLayer(seg, segQual, a.Target-w.Start, end-w.Start)
		}
		o.BreakingPoints = nil
	}
}

func meanQuality(quality []byte) float64 {
	if len(quality) == 0 {
		return 0
	}
	sum := 0
	for _, q := range quality {
		sum += int(q) - '!'
	}
	return float64(sum) / float64(len(quality))
}

// Polish runs the accelerated consensus phase over the window collection,
// retries failed windows on the CPU, and appends one polished sequence per
// window group to dst. The internal window collection is consumed on return.
func (p *Polisher) Polish(dst *[]*Sequence, dropUnpolished bool) error {
	if len(p.windows) == 0 {
		return fmt.Errorf("polish: no windows; Initialize must run first")
	}

	bins, err := binDevices(p.cfg.BatchCount, p.backend.Devices())
	if err != nil {
		return err
	}
	batches := make([]ConsensusBatch, len(bins))
	for i, device := range bins {
		batches[i] = p.backend.NewConsensusBatch(device)
	}

	p.status = make([]bool, len(p.windows))
	tracker := newProgressTracker(len(p.windows), p.reporter)
	cursor := NewWorkCursor(p.windows)

	err = runBatches(cursor, batches,
		func(b ConsensusBatch, w *Window) bool { return b.TryAdd(w) },
		func(b ConsensusBatch, start, end int) error {
			began := time.Now()
			results, err := b.GenerateConsensus()
			if err != nil {
				return err
			}
			if len(results) != end-start {
				return fmt.Errorf("%w: got %d results for range [%d, %d)",
					ErrResultCountMismatch, len(results), start, end)
			}
			for i, ok := range results {
				p.status[start+i] = ok
			}
			return p.trace.Record(TraceEvent{
				Phase: "consensus", Device: b.Device(),
				Start: start, End: end, Duration: time.Since(began),
			})
		},
		func(start, end int) { tracker.observe(start) },
	)
	if err != nil {
		return err
	}

	if err := p.fallback.retry(p.windows, p.status); err != nil {
		return err
	}
	tracker.finish()

	polished := 0
	for _, ok := range p.status {
		if ok {
			polished++
		}
	}
	log.Info().
		Int("windows", len(p.status)).
		Int("polished", polished).
		Msg("generated consensus")

	p.collectResults(dst, dropUnpolished)
	return nil
}

// Close flushes all in-flight device work before releasing device resources.
func (p *Polisher) Close() error {
	if err := p.backend.Synchronize(); err != nil {
		return err
	}
	return p.backend.Close()
}
