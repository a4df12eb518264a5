package capture

import (
	"context"
	"sync/atomic"
	"time"

	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"

	"go.uber.org/multierr"
)

// Stream is a started audio input stream.
type Stream interface {
	Stop() error
	Close() error
}

// Agent moves audio from the device callback to the translation service and
// renders the results.
type Agent struct {
	cfg        config.CaptureConfig
	classifier Classifier
	buffer     *Buffer
	sink       BufferSink
	page       *Page
	display    *Display
	refine     RefineOptions
	logger     *logger.Logger

	raw     chan []float32
	dropped atomic.Uint64
	now     func() time.Time
}

// NewAgent builds an agent. display may be nil.
func NewAgent(cfg config.CaptureConfig, sink BufferSink, page *Page, display *Display, log *logger.Logger) *Agent {
	a := &Agent{
		cfg: cfg,
		classifier: Classifier{
			Channels:          cfg.Channels,
			Window:            SpectrumWindow,
			OwnVoiceThreshold: cfg.OwnVoiceThreshold,
			FloorLevel:        cfg.FloorLevel,
		},
		sink:    sink,
		page:    page,
		display: display,
		refine: RefineOptions{
			FillerWords:      cfg.FillerWords,
			BaseURL:          cfg.ServerURL,
			PlaceholderLevel: cfg.PlaceholderLevel,
		},
		logger: log,
		raw:    make(chan []float32, cfg.QueueSize),
		now:    time.Now,
	}
	a.buffer = NewBuffer(BufferConfig{
		SilenceThreshold: cfg.SilenceThreshold,
		MaxSilenceFrames: cfg.MaxSilenceFrames,
		MinInterval:      cfg.MinInterval,
		TargetSamples:    cfg.TargetSamples() * max(cfg.Channels, 1),
		MinAudibleLevel:  cfg.MinAudibleLevel,
	}, a.now())
	return a
}

// OnAudio is the device callback. It copies the block and hands it off
// without blocking; blocks are dropped when the queue is full.
func (a *Agent) OnAudio(in []float32) {
	block := make([]float32, len(in))
	copy(block, in)
	select {
	case a.raw <- block:
	default:
		a.dropped.Add(1)
	}
}

// Dropped reports how many blocks the callback could not queue.
func (a *Agent) Dropped() uint64 {
	return a.dropped.Load()
}

// Run captures from an already started stream until ctx is cancelled, then
// stops and closes it. Failures while capturing are logged and survived.
func (a *Agent) Run(ctx context.Context, stream Stream) error {
	if err := a.page.Init(a.now()); err != nil {
		a.logger.Warnw("Capture Agent: could not write initial page", "error", err)
	}
	if a.display != nil {
		if _, err := a.display.Start(); err != nil {
			a.logger.Warnw("Capture Agent: display unavailable", "error", err)
			a.display = nil
		}
	}

	a.logger.Infow("Capture Agent: started", "server", a.cfg.ServerURL, "allow_mic", a.cfg.AllowMic)

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.loop(loopCtx)
	}()

	<-ctx.Done()
	a.logger.Info("Capture Agent: stopping...")

	var errs error
	if err := stream.Stop(); err != nil {
		a.logger.Errorw("Capture Agent: failed to stop stream", "error", err)
		errs = multierr.Append(errs, err)
	}
	if err := stream.Close(); err != nil {
		a.logger.Errorw("Capture Agent: failed to close stream", "error", err)
		errs = multierr.Append(errs, err)
	}
	cancel()
	<-done
	if err := a.stopDisplay(); err != nil {
		a.logger.Errorw("Capture Agent: failed to stop display", "error", err)
		errs = multierr.Append(errs, err)
	}

	a.logger.Infow("Capture Agent: stopped", "dropped_blocks", a.Dropped())
	return errs
}

func (a *Agent) stopDisplay() error {
	if a.display == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.display.Stop(ctx)
}

func (a *Agent) loop(ctx context.Context) {
	poll := a.cfg.PollInterval
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	timer := time.NewTimer(poll)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case block := <-a.raw:
			d := a.classifier.Classify(block)
			if !d.Enqueue {
				if d.Reason == "own voice" {
					a.logger.Debugw("Skipping likely own voice", "level", d.Features.Level)
				}
				continue
			}
			timer.Reset(poll)
			a.dispatch(ctx, a.buffer.Push(block, a.now()))
		case <-timer.C:
			timer.Reset(poll)
			a.dispatch(ctx, a.buffer.Idle(a.now()))
		}
	}
}

func (a *Agent) dispatch(ctx context.Context, f *Flush) {
	if f == nil {
		return
	}
	if !f.Audible {
		a.logger.Infow("Audio is too quiet, skipping processing", "level", f.Level)
		return
	}
	defer a.buffer.Done()
	a.logger.Infow("Processing buffer", "trigger", f.Trigger, "blocks", f.Blocks, "level", f.Level)

	resp, err := a.sink.Process(ctx, f)
	if err != nil {
		a.logger.Errorw("Error sending audio to backend", "error", err)
		return
	}
	if resp == nil {
		return
	}
	a.logger.Infow("Transcription", "text", resp.Text)

	res, ok := Refine(resp, f.Level, a.refine)
	if !ok {
		a.logger.Warnw("Empty transcription or no videos to display", "text", resp.Text)
		return
	}
	if err := a.page.Render(res, a.now()); err != nil {
		a.logger.Errorw("Failed to render page", "error", err)
		return
	}
	a.logger.Infow("Displaying sign language content", "text", res.Text, "words", len(res.Entries))
}
