package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"
	"audio2sign/pkg/models"
	"audio2sign/pkg/storage"
	"audio2sign/pkg/transcribe"
)

var (
	ErrQueueFull     = errors.New("pipeline queue is full")
	ErrShuttingDown  = errors.New("pipeline is shutting down")
	ErrNotStarted    = errors.New("pipeline is not started")
	ErrTranscription = errors.New("transcription failed")
)

// Publisher receives every completed translation.
type Publisher interface {
	Publish(t *models.Translation)
}

type Manager struct {
	config    config.PipelineConfig
	engine    transcribe.Engine
	resolver  Resolver
	memStore  storage.MemoryStore
	diskStore storage.DiskStore
	publisher Publisher
	logger    *logger.Logger

	pool *WorkerPool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager wires the pipeline. diskStore and publisher may be nil.
func NewManager(cfg config.PipelineConfig, engine transcribe.Engine, resolver Resolver,
	memStore storage.MemoryStore, diskStore storage.DiskStore, publisher Publisher, log *logger.Logger) *Manager {
	return &Manager{
		config:    cfg,
		engine:    engine,
		resolver:  resolver,
		memStore:  memStore,
		diskStore: diskStore,
		publisher: publisher,
		logger:    log,
	}
}

func (m *Manager) Start(ctx context.Context) error {
	if m.config.Workers < 1 {
		return fmt.Errorf("pipeline needs at least one worker, got %d", m.config.Workers)
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.logger.Infow("Pipeline Manager: Starting...", "workers", m.config.Workers, "queue", m.config.QueueSize, "engine", m.engine.Name())

	m.pool = NewWorkerPool(m.config.Workers, m.config.QueueSize, m.process)
	m.pool.Start(m.ctx)
	return nil
}

func (m *Manager) Stop() {
	m.logger.Info("Pipeline Manager: Stopping...")
	if m.cancel != nil {
		m.cancel()
	}
	if m.pool != nil {
		m.pool.Stop()
	}
	m.logger.Info("Pipeline Manager: Stopped.")
}

// Submit queues job and waits for its translation. It never blocks on a full
// queue.
func (m *Manager) Submit(ctx context.Context, job *models.Job) (*models.Translation, error) {
	if m.pool == nil {
		return nil, ErrNotStarted
	}
	if m.ctx.Err() != nil {
		return nil, ErrShuttingDown
	}
	if !m.pool.TrySubmit(job) {
		m.logger.Warnw("Pipeline Manager: queue full", "job", job.ID)
		return nil, ErrQueueFull
	}
	m.logger.Debugw("Pipeline Manager: job submitted", "job", job.ID, "source", job.Source)

	select {
	case res := <-job.Result():
		return res.Translation, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.ctx.Done():
		return nil, ErrShuttingDown
	}
}

func (m *Manager) process(ctx context.Context, job *models.Job) {
	if err := job.Context().Err(); err != nil {
		m.logger.Infow("Pipeline Manager: skipping abandoned job", "job", job.ID, "error", err)
		job.Complete(nil, err)
		return
	}

	// Cancelled by either the pipeline or the submitter.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(job.Context(), cancel)
	defer stop()

	if m.config.ProcessingTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, m.config.ProcessingTimeout)
		defer cancel()
	}
	start := time.Now()

	text, err := m.engine.Transcribe(ctx, job.AudioPath)
	if err != nil {
		m.logger.Errorw("Transcription Stage: failed", "job", job.ID, "error", err)
		job.Complete(nil, fmt.Errorf("%w: %w", ErrTranscription, err))
		return
	}
	m.logger.Infow("Transcription Stage: done", "job", job.ID, "text", text)

	t := BuildTranslation(text, m.resolver)
	t.ID = job.ID
	t.Engine = m.engine.Name()
	t.Source = job.Source
	if len(t.Missing) > 0 {
		m.logger.Warnw("Resolution Stage: missing clips", "job", job.ID, "missing", t.Missing)
	}

	m.store(t)

	if m.publisher != nil {
		m.publisher.Publish(t)
	}

	job.Complete(t, nil)
	m.logger.Infow("Pipeline Manager: job completed",
		"job", job.ID, "words", len(t.FormattedWords), "videos", len(t.Videos), "took", time.Since(start))
}

// store never fails the job; history is best effort.
func (m *Manager) store(t *models.Translation) {
	if m.memStore != nil {
		if err := m.memStore.StoreTranslation(t); err != nil {
			m.logger.Errorw("Storage Stage: memory store failed", "id", t.ID, "error", err)
		}
	}
	if m.diskStore != nil {
		if err := m.diskStore.StoreTranslation(t); err != nil {
			m.logger.Errorw("Storage Stage: disk store failed", "id", t.ID, "error", err)
		}
	}
}
