package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"newsreel/internal/config"
	"newsreel/internal/encoding"
	"newsreel/internal/fileutil"
	"newsreel/internal/history"
	"newsreel/internal/images"
	"newsreel/internal/logging"
	"newsreel/internal/script"
	"newsreel/internal/services"
	"newsreel/internal/speech"
	"newsreel/internal/topics"
)

// Artifacts is the set of file paths produced by one run. Each path is owned
// exclusively by the run that created it.
type Artifacts struct {
	Audio string
	Image string
	Video string
}

// Result describes a successful run.
type Result struct {
	RunID     string
	Topics    []string
	Script    string
	Artifacts Artifacts
}

// Prober measures the container duration of a media file.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Orchestrator runs the five pipeline stages in strict sequence,
// short-circuiting on the first failure. A single run-lock serializes
// triggers: a second trigger while a run is in flight is rejected with
// services.ErrBusy rather than queued, so two runs can never write artifacts
// concurrently.
type Orchestrator struct {
	cfg      *config.Config
	logger   *slog.Logger
	source   topics.Source
	template script.Template
	synth    speech.Synthesizer
	fetcher  images.Fetcher
	muxer    encoding.Muxer
	prober   Prober
	store    *history.Store

	running atomic.Bool
}

// Option configures optional orchestrator collaborators.
type Option func(*Orchestrator)

// WithHistory records every run in the given store.
func WithHistory(store *history.Store) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithProber verifies the produced video's duration after muxing.
func WithProber(prober Prober) Option {
	return func(o *Orchestrator) { o.prober = prober }
}

// WithTemplate overrides the narration template.
func WithTemplate(tpl script.Template) Option {
	return func(o *Orchestrator) { o.template = tpl }
}

// New constructs an orchestrator over the given collaborators.
func New(cfg *config.Config, logger *slog.Logger, source topics.Source, synth speech.Synthesizer, fetcher images.Fetcher, muxer encoding.Muxer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		source:   source,
		template: script.DefaultTemplate(),
		synth:    synth,
		fetcher:  fetcher,
		muxer:    muxer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline. When override is non-empty the feed call is
// skipped and the override list is used verbatim. On failure the error
// carries one of the services taxonomy markers and any partial artifacts are
// left on disk for inspection.
func (o *Orchestrator) Run(ctx context.Context, override []string) (*Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, services.Wrap(services.ErrBusy, "pipeline", "trigger", "a run is already in progress", nil)
	}
	defer o.running.Store(false)

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	if o.cfg.Workflow.RunTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(o.cfg.Workflow.RunTimeoutSeconds)*time.Second)
		defer cancel()
	}

	logger := logging.WithContext(ctx, o.logger)
	started := time.Now()
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("override_topics", len(override)))

	result, err := o.run(ctx, runID, override)
	if err != nil {
		logger.Error("run failed",
			logging.String(logging.FieldEventType, "run_failure"),
			logging.String("error_kind", services.Kind(err)),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err))
		return nil, err
	}

	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("video_file", result.Artifacts.Video),
		logging.Duration("elapsed", time.Since(started)))
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, runID string, override []string) (*Result, error) {
	topicList, err := o.acquireTopics(ctx, override)
	if err != nil {
		return nil, err
	}

	narration := script.Compose(o.template, topicList)

	if o.store != nil {
		if _, err := o.store.Begin(ctx, runID, len(topicList), narration); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	artifacts := o.artifactPaths(time.Now())
	if err := o.synthesize(ctx, narration, artifacts.Audio); err != nil {
		o.recordFailure(runID, err, artifacts)
		return nil, err
	}
	if err := o.fetchImage(ctx, topicList, artifacts.Image); err != nil {
		o.recordFailure(runID, err, artifacts)
		return nil, err
	}
	if err := o.mux(ctx, artifacts); err != nil {
		o.recordFailure(runID, err, artifacts)
		return nil, err
	}

	if o.store != nil {
		if err := o.store.Complete(ctx, runID, artifacts.Audio, artifacts.Image, artifacts.Video); err != nil {
			logging.WithContext(ctx, o.logger).Warn("failed to record run completion", logging.Error(err))
		}
	}

	return &Result{
		RunID:     runID,
		Topics:    topicList,
		Script:    narration,
		Artifacts: artifacts,
	}, nil
}

func (o *Orchestrator) acquireTopics(ctx context.Context, override []string) ([]string, error) {
	cleaned := make([]string, 0, len(override))
	for _, topic := range override {
		if topic = strings.TrimSpace(topic); topic != "" {
			cleaned = append(cleaned, topic)
		}
	}
	if len(cleaned) > 0 {
		return cleaned, nil
	}

	stageCtx, logger, cancel := o.stage(ctx, "topics", o.cfg.Topics.TimeoutSeconds)
	defer cancel()

	fetched, err := o.source.Fetch(stageCtx)
	if err != nil {
		return nil, services.Classify(services.ErrSourceUnavailable, "topics", "fetch", err)
	}
	if len(fetched) == 0 {
		return nil, services.Wrap(services.ErrSourceUnavailable, "topics", "fetch", "feed returned no items and no override was given", nil)
	}

	logger.Info("topics acquired", logging.Int("topics", len(fetched)))
	return fetched, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, narration, audioPath string) error {
	stageCtx, logger, cancel := o.stage(ctx, "speech", o.cfg.Speech.TimeoutSeconds)
	defer cancel()

	if err := o.synth.Synthesize(stageCtx, narration, audioPath); err != nil {
		return services.Classify(services.ErrSynthesisFailed, "speech", "synthesize", err)
	}
	// The synthesizer's return status is not trusted on its own.
	if !fileutil.ExistsNonEmpty(audioPath) {
		return services.Wrap(services.ErrSynthesisFailed, "speech", "synthesize", fmt.Sprintf("audio file %s missing or empty after synthesis", audioPath), nil)
	}

	logger.Info("audio synthesized", logging.String("audio_file", audioPath))
	return nil
}

func (o *Orchestrator) fetchImage(ctx context.Context, topicList []string, imagePath string) error {
	stageCtx, logger, cancel := o.stage(ctx, "images", o.cfg.Images.TimeoutSeconds)
	defer cancel()

	query := images.DeriveQuery(o.cfg.Images.Query, topicList)
	if err := o.fetcher.Fetch(stageCtx, query, imagePath); err != nil {
		return services.Classify(services.ErrImageFetchFailed, "images", "fetch", err)
	}
	if !fileutil.ExistsNonEmpty(imagePath) {
		return services.Wrap(services.ErrImageFetchFailed, "images", "fetch", fmt.Sprintf("image file %s missing or empty after fetch", imagePath), nil)
	}

	logger.Info("background image fetched",
		logging.String("query", query),
		logging.String("image_file", imagePath))
	return nil
}

func (o *Orchestrator) mux(ctx context.Context, artifacts Artifacts) error {
	stageCtx, logger, cancel := o.stage(ctx, "encoding", o.cfg.Encoder.TimeoutSeconds)
	defer cancel()

	if err := o.muxer.Mux(stageCtx, artifacts.Audio, artifacts.Image, artifacts.Video); err != nil {
		return services.Classify(services.ErrEncodingFailed, "encoding", "mux", err)
	}
	if !fileutil.ExistsNonEmpty(artifacts.Video) {
		return services.Wrap(services.ErrEncodingFailed, "encoding", "mux", fmt.Sprintf("video file %s missing or empty after encoding", artifacts.Video), nil)
	}

	if o.prober != nil {
		o.verifyDuration(stageCtx, logger, artifacts)
	}

	logger.Info("video encoded", logging.String("video_file", artifacts.Video))
	return nil
}

// verifyDuration compares the produced video's duration against the audio
// track. Encoder frame rounding makes exact equality unrealistic; drift
// beyond half a second is logged as an anomaly but does not fail the run.
func (o *Orchestrator) verifyDuration(ctx context.Context, logger *slog.Logger, artifacts Artifacts) {
	const tolerance = 0.5

	audioDur, err := o.prober.ProbeDuration(ctx, artifacts.Audio)
	if err != nil {
		logger.Debug("audio duration probe failed", logging.Error(err))
		return
	}
	videoDur, err := o.prober.ProbeDuration(ctx, artifacts.Video)
	if err != nil {
		logger.Debug("video duration probe failed", logging.Error(err))
		return
	}

	drift := videoDur - audioDur
	if drift < 0 {
		drift = -drift
	}
	if drift > tolerance {
		logger.Warn("video duration drifts from audio",
			logging.Float64("audio_seconds", audioDur),
			logging.Float64("video_seconds", videoDur))
		return
	}
	logger.Debug("duration verified",
		logging.Float64("audio_seconds", audioDur),
		logging.Float64("video_seconds", videoDur))
}

func (o *Orchestrator) stage(ctx context.Context, name string, timeoutSeconds int) (context.Context, *slog.Logger, context.CancelFunc) {
	stageCtx := services.WithStage(ctx, name)
	cancel := context.CancelFunc(func() {})
	if timeoutSeconds > 0 {
		stageCtx, cancel = context.WithTimeout(stageCtx, time.Duration(timeoutSeconds)*time.Second)
	}
	return stageCtx, logging.WithContext(stageCtx, o.logger), cancel
}

func (o *Orchestrator) artifactPaths(now time.Time) Artifacts {
	timestamp := now.Format("20060102_150405")
	dir := o.cfg.Paths.OutputDir
	return Artifacts{
		Audio: filepath.Join(dir, fmt.Sprintf("voice_%s.mp3", timestamp)),
		Image: filepath.Join(dir, fmt.Sprintf("background_%s.jpg", timestamp)),
		Video: filepath.Join(dir, fmt.Sprintf("output_%s.mp4", timestamp)),
	}
}

// recordFailure persists the failed run outcome. Partial artifacts are
// recorded as-is; files already written stay on disk for inspection.
func (o *Orchestrator) recordFailure(runID string, runErr error, artifacts Artifacts) {
	if o.store == nil {
		return
	}
	audio := artifacts.Audio
	if !fileutil.ExistsNonEmpty(audio) {
		audio = ""
	}
	image := artifacts.Image
	if !fileutil.ExistsNonEmpty(image) {
		image = ""
	}
	// Use a fresh context: the run context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.store.Fail(ctx, runID, services.Kind(runErr), runErr.Error(), audio, image); err != nil {
		o.logger.Warn("failed to record run failure", logging.Error(err))
	}
}

// Busy reports whether a run is currently in flight.
func (o *Orchestrator) Busy() bool {
	return o.running.Load()
}
