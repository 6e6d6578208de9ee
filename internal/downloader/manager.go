package downloader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ytfetch/internal/archive"
	"ytfetch/internal/domain"
	"ytfetch/internal/storage"
	"ytfetch/internal/ytdlp"
)

// Manager coordinates fetch-tool runs, progress relay, packaging, and the
// scratch-artifact lifecycle. One child process per submitted request; no
// state is shared between requests beyond the scratch directory namespace.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	Submit(req domain.Request) (*Job, error)
	Cancel(ctx context.Context, jobID string) error
}

type Config struct {
	Binary        string
	MaxConcurrent int
	EventBuffer   int
	ProgressDelta float64
	Logger        *logrus.Logger
}

// Job is a live download run. Events is closed exactly once, after the run
// reaches a terminal state and cleanup has been scheduled.
type Job struct {
	ID     string
	Stem   string
	Events <-chan domain.Event
}

type manager struct {
	cfg    Config
	store  *storage.Manager
	runner *ytdlp.Runner
	packer *archive.Packer

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	active map[string]*jobHandle
}

type jobHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config, store *storage.Manager) Manager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:    cfg,
		store:  store,
		runner: ytdlp.NewRunner(cfg.Binary, cfg.Logger),
		packer: archive.NewPacker(cfg.Logger),
		sem:    make(chan struct{}, cfg.MaxConcurrent),
		active: make(map[string]*jobHandle),
	}
}

func (m *manager) Start(ctx context.Context) error {
	if err := m.store.EnsureRoot(); err != nil {
		return err
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.cfg.Logger.Infof("download manager started, scratch dir: %s", m.store.Root())
	return nil
}

func (m *manager) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.cfg.Logger.Info("download manager stopped")
}

// Submit validates and accepts a request, returning a Job whose Events
// channel streams progress until the terminal event. Invalid requests are
// rejected synchronously before any process is spawned.
func (m *manager) Submit(req domain.Request) (*Job, error) {
	if strings.TrimSpace(req.ContentID) == "" || strings.TrimSpace(req.FormatID) == "" {
		return nil, domain.ErrInvalidRequest
	}

	stem := storage.Sanitize(req.Options.Filename)
	if stem == "" {
		stem = storage.Sanitize(req.ContentID)
	}
	if stem == "" {
		return nil, domain.ErrInvalidRequest
	}

	id := uuid.NewString()
	events := make(chan domain.Event, m.cfg.EventBuffer)
	job := &Job{ID: id, Stem: stem, Events: events}

	jobCtx, cancel := context.WithCancel(m.ctx)
	handle := &jobHandle{cancel: cancel, done: make(chan struct{})}
	m.registerJob(id, handle)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.unregisterJob(id)
			close(handle.done)
		}()
		defer close(events)

		select {
		case <-jobCtx.Done():
			return
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
			m.runJob(jobCtx, req, job, events)
		}
	}()

	return job, nil
}

// Cancel aborts a running job, terminating its child process, and waits for
// the job goroutine to finish cleanup. Unknown IDs are a no-op.
func (m *manager) Cancel(ctx context.Context, jobID string) error {
	handle, ok := m.getJobHandle(jobID)
	if !ok {
		return nil
	}
	handle.cancel()
	select {
	case <-handle.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *manager) registerJob(id string, handle *jobHandle) {
	m.mu.Lock()
	m.active[id] = handle
	m.mu.Unlock()
}

func (m *manager) unregisterJob(id string) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}

func (m *manager) getJobHandle(id string) (*jobHandle, bool) {
	m.mu.Lock()
	handle, ok := m.active[id]
	m.mu.Unlock()
	return handle, ok
}

func (m *manager) runJob(ctx context.Context, req domain.Request, job *Job, events chan<- domain.Event) {
	logger := m.cfg.Logger.WithField("request_id", job.ID)

	// The uuid token baked into every artifact name keeps concurrent
	// requests with identical titles from colliding on disk.
	token := job.ID[:8]
	qualified := fmt.Sprintf("%s [%s]", job.Stem, token)

	send := func(ev domain.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	var err error
	if req.IsBatch() {
		err = m.runBatch(ctx, req, qualified, send, logger)
	} else {
		err = m.runSingle(ctx, req, qualified, send, logger)
	}
	if err == nil {
		return
	}

	m.store.ReleaseByPrefix(qualified)
	if ctx.Err() != nil || err == domain.ErrCanceled {
		logger.Info("download canceled")
		return
	}
	logger.Error(err.Error())
	send(domain.Event{Kind: domain.EventError, Err: err.Error()})
}

func (m *manager) runSingle(ctx context.Context, req domain.Request, qualified string, send func(domain.Event), logger *logrus.Entry) error {
	template := filepath.Join(m.store.Root(), qualified+".%(ext)s")
	args := ytdlp.BuildArgs([]string{req.ContentID}, req.FormatID, template, req.Options)

	parser := ytdlp.NewParser()
	throttle := &ytdlp.Throttle{MinDelta: m.cfg.ProgressDelta}

	logger.Infof("starting download of %s", req.ContentID)
	if err := m.runner.Run(ctx, args, func(line string) {
		for _, ev := range parser.Feed([]byte(line + "\n")) {
			if throttle.Allow(ev) {
				send(ev)
			}
		}
	}); err != nil {
		return err
	}

	path, err := m.store.Locate(qualified)
	if err != nil {
		return fmt.Errorf("download completed but output file not found: %w", err)
	}

	logger.Infof("download completed: %s", path)
	send(domain.Event{Kind: domain.EventComplete, Filename: filepath.Base(path)})
	return nil
}

func (m *manager) runBatch(ctx context.Context, req domain.Request, qualified string, send func(domain.Event), logger *logrus.Entry) error {
	workdir, err := m.store.AllocateBatchDir(qualified)
	if err != nil {
		return err
	}

	template := filepath.Join(workdir, ytdlp.BatchOutputPattern)
	args := ytdlp.BuildArgs(req.Items, req.FormatID, template, req.Options)

	parser := ytdlp.NewPassthroughParser()

	logger.Infof("starting batch download of %d items", len(req.Items))
	if err := m.runner.Run(ctx, args, func(line string) {
		for _, ev := range parser.Feed([]byte(line + "\n")) {
			send(ev)
		}
	}); err != nil {
		m.store.Release(workdir)
		return err
	}

	archivePath := filepath.Join(m.store.Root(), qualified+".zip")
	send(domain.Event{Kind: domain.EventStatus, Status: "Zipping files..."})
	if err := m.packer.Pack(workdir, archivePath); err != nil {
		m.store.Release(workdir)
		return &domain.PackageError{Err: err}
	}
	m.store.Release(workdir)
	send(domain.Event{Kind: domain.EventStatus, Status: "Zipping complete."})

	logger.Infof("batch download completed: %s", archivePath)
	send(domain.Event{Kind: domain.EventComplete, Filename: filepath.Base(archivePath)})
	return nil
}

var _ Manager = (*manager)(nil)
