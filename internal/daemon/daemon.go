package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"newsreel/internal/config"
	"newsreel/internal/dashboard"
	"newsreel/internal/encoding"
	"newsreel/internal/history"
	"newsreel/internal/images"
	"newsreel/internal/logging"
	"newsreel/internal/pipeline"
	"newsreel/internal/settings"
	"newsreel/internal/speech"
	"newsreel/internal/topics"
)

// Daemon wires the history store, topic settings, pipeline orchestrator, and
// dashboard server into a single lifecycle. A flock in the log directory
// prevents two daemon instances from sharing the same output tree.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *history.Store
	topics *settings.Store
	orch   *pipeline.Orchestrator
	web    *dashboard.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New builds a daemon from configuration. Dashboard credentials must be
// configured; the daemon refuses to start an unauthenticated admin surface.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.ValidateAdmin(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	topicStore, err := settings.Open(cfg.TopicsFilePath(), cfg.Topics.Defaults, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open topic settings: %w", err)
	}

	encoder, err := encoding.New(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	orch := pipeline.New(cfg, logger,
		topics.NewRedditSource(cfg, logger),
		speech.NewHTTPSynthesizer(cfg, logger),
		images.NewHTTPFetcher(cfg, logger),
		encoder,
		pipeline.WithHistory(store),
		pipeline.WithProber(encoder),
	)

	web, err := dashboard.New(cfg, logger, orch, topicStore, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "newsreel.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		topics:   topicStore,
		orch:     orch,
		web:      web,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and brings up the dashboard server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another instance holds %s", d.lockPath)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.web.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock_file", d.lockPath),
		logging.String("history_db", d.store.Path()))
	return nil
}

// Stop shuts down the dashboard and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.running.Store(false)

	if d.cancel != nil {
		d.cancel()
	}
	d.web.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release lock", logging.Error(err))
	}
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the history store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Running reports whether Start has completed and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Addr returns the dashboard listen address, or empty before Start.
func (d *Daemon) Addr() string {
	return d.web.Addr()
}
