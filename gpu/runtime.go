// Package gpu provides the accelerated batch backend behind the polisher's
// executor contracts. The compute capability itself is opaque to the
// scheduler; the in-tree accelerator is a CPU-backed stand-in with the same
// batching, capacity and synchronization behavior as a device-resident one.
package gpu

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/SHuang-Broad/racon/align"
	"github.com/SHuang-Broad/racon/polisher"
)

// Capacity limits per executor instance.
const (
	MaxWindows        = 256
	MaxDepthPerWindow = 200
	MaxAlignments     = 1000
)

// Config selects the devices and the alignment parameters the accelerators
// run with.
type Config struct {
	Devices int
	Scoring align.Scoring
	Banded  bool
}

// Runtime owns the detected accelerators and hands out batch executors bound
// to them. It implements polisher.Backend.
type Runtime struct {
	devices []*device
	closed  bool
}

// device is one accelerator context. inflight tracks bulk operations so
// Synchronize can block until the device is drained.
type device struct {
	id       int
	engine   *align.Engine
	mu       sync.Mutex // bulk ops on one context are serialized
	inflight sync.WaitGroup
}

// run executes one bulk operation on the device context.
func (d *device) run(op func(e *align.Engine) error) error {
	d.inflight.Add(1)
	defer d.inflight.Done()
	d.mu.Lock()
	defer d.mu.Unlock()
	return op(d.engine)
}

// Detect initializes the configured number of accelerator contexts. Zero
// devices is a fatal environment error.
func Detect(cfg Config) (*Runtime, error) {
	if cfg.Devices < 1 {
		return nil, fmt.Errorf("gpu: %w", polisher.ErrNoAccelerators)
	}
	r := &Runtime{}
	for id := 0; id < cfg.Devices; id++ {
		log.Debug().Int("device", id).Msg("initializing accelerator context")
		r.devices = append(r.devices, &device{
			id:     id,
			engine: align.NewEngine(cfg.Scoring, cfg.Banded),
		})
	}
	log.Info().Int("devices", len(r.devices)).Msg("accelerator contexts initialized")
	return r, nil
}

func (r *Runtime) Devices() int { return len(r.devices) }

func (r *Runtime) NewAlignerBatch(device int) polisher.AlignerBatch {
	return &batchAligner{dev: r.devices[device], capacity: MaxAlignments}
}

func (r *Runtime) NewConsensusBatch(device int) polisher.ConsensusBatch {
	return &batchConsensus{dev: r.devices[device], capacity: MaxWindows}
}

// Synchronize blocks until every in-flight bulk operation has returned.
func (r *Runtime) Synchronize() error {
	for _, d := range r.devices {
		d.inflight.Wait()
	}
	return nil
}

// Close releases the accelerator contexts. Callers synchronize first.
func (r *Runtime) Close() error {
	if r.closed {
		return fmt.Errorf("gpu: runtime already closed")
	}
	r.closed = true
	r.devices = nil
	return nil
}
