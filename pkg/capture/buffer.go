package capture

import (
	"context"
	"time"

	"github.com/looplab/fsm"
)

const (
	StateAccumulating = "accumulating"
	StateDispatching  = "dispatching"

	eventFlush = "flush"
	eventDone  = "done"

	TriggerSilence = "silence"
	TriggerSize    = "size"
)

type BufferConfig struct {
	SilenceThreshold float64
	MaxSilenceFrames int
	MinInterval      time.Duration
	TargetSamples    int
	MinAudibleLevel  float64
}

// Flush is a batch of accumulated audio ready for transcription. Audible is
// false when the batch was discarded for being too quiet.
type Flush struct {
	Samples []float32
	Blocks  int
	Level   float64
	Trigger string
	Audible bool
}

// Buffer accumulates enqueued blocks and decides when to dispatch them.
// It is driven by a single goroutine.
type Buffer struct {
	cfg BufferConfig

	blocks       [][]float32
	samples      int
	silentFrames int
	lastDispatch time.Time

	machine *fsm.FSM
}

// NewBuffer starts accumulating. The minimum interval is measured from start
// until the first dispatch.
func NewBuffer(cfg BufferConfig, start time.Time) *Buffer {
	return &Buffer{
		cfg:          cfg,
		lastDispatch: start,
		machine: fsm.NewFSM(
			StateAccumulating,
			fsm.Events{
				{Name: eventFlush, Src: []string{StateAccumulating}, Dst: StateDispatching},
				{Name: eventDone, Src: []string{StateDispatching}, Dst: StateAccumulating},
			},
			fsm.Callbacks{},
		),
	}
}

func (b *Buffer) State() string {
	return b.machine.Current()
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	return b.samples
}

// Push adds one block. Silent blocks are not buffered; they only count
// towards the silence timeout. A non-nil result means the buffer was emptied.
func (b *Buffer) Push(block []float32, now time.Time) *Flush {
	if Level(block) < b.cfg.SilenceThreshold {
		return b.silent(now)
	}

	b.silentFrames = 0
	b.blocks = append(b.blocks, block)
	b.samples += len(block)

	if b.cfg.TargetSamples > 0 && b.samples >= b.cfg.TargetSamples && b.intervalElapsed(now) {
		return b.flush(TriggerSize, now)
	}
	return nil
}

// Idle records a poll that produced no block. It counts as a silent frame.
func (b *Buffer) Idle(now time.Time) *Flush {
	return b.silent(now)
}

// Done marks the dispatched batch as handled.
func (b *Buffer) Done() {
	if b.machine.Is(StateDispatching) {
		b.machine.Event(context.Background(), eventDone)
	}
}

func (b *Buffer) silent(now time.Time) *Flush {
	b.silentFrames++
	if b.silentFrames >= b.cfg.MaxSilenceFrames && len(b.blocks) > 0 && b.intervalElapsed(now) {
		return b.flush(TriggerSilence, now)
	}
	return nil
}

func (b *Buffer) intervalElapsed(now time.Time) bool {
	return now.Sub(b.lastDispatch) >= b.cfg.MinInterval && b.machine.Is(StateAccumulating)
}

func (b *Buffer) flush(trigger string, now time.Time) *Flush {
	samples := make([]float32, 0, b.samples)
	for _, blk := range b.blocks {
		samples = append(samples, blk...)
	}
	f := &Flush{
		Samples: samples,
		Blocks:  len(b.blocks),
		Level:   Level(samples),
		Trigger: trigger,
	}

	b.blocks = nil
	b.samples = 0
	b.silentFrames = 0

	if f.Level <= b.cfg.MinAudibleLevel {
		return f
	}
	f.Audible = true
	b.lastDispatch = now
	b.machine.Event(context.Background(), eventFlush)
	return f
}
