package pipeline_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"newsreel/internal/config"
	"newsreel/internal/history"
	"newsreel/internal/logging"
	"newsreel/internal/pipeline"
	"newsreel/internal/services"
	"newsreel/internal/testsupport"
)

type stubSource struct {
	topics []string
	err    error
	calls  int
}

func (s *stubSource) Fetch(ctx context.Context) ([]string, error) {
	s.calls++
	return s.topics, s.err
}

type stubSynth struct {
	err       error
	skipWrite bool
	block     chan struct{}
	text      string
}

func (s *stubSynth) Synthesize(ctx context.Context, text, path string) error {
	if s.block != nil {
		<-s.block
	}
	s.text = text
	if s.err != nil {
		return s.err
	}
	if s.skipWrite {
		return nil
	}
	return os.WriteFile(path, []byte("mp3"), 0o644)
}

type stubFetcher struct {
	err   error
	query string
}

func (f *stubFetcher) Fetch(ctx context.Context, query, path string) error {
	f.query = query
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(path, []byte("jpg"), 0o644)
}

type stubMuxer struct {
	err error
}

func (m *stubMuxer) Mux(ctx context.Context, audioPath, imagePath, outputPath string) error {
	if m.err != nil {
		return m.err
	}
	return os.WriteFile(outputPath, []byte("mp4"), 0o644)
}

type harness struct {
	cfg     *config.Config
	source  *stubSource
	synth   *stubSynth
	fetcher *stubFetcher
	muxer   *stubMuxer
	store   *history.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &harness{
		cfg:     cfg,
		source:  &stubSource{topics: []string{"First story", "Second story"}},
		synth:   &stubSynth{},
		fetcher: &stubFetcher{},
		muxer:   &stubMuxer{},
		store:   store,
	}
}

func (h *harness) orchestrator() *pipeline.Orchestrator {
	return pipeline.New(h.cfg, logging.NewNop(), h.source, h.synth, h.fetcher, h.muxer, pipeline.WithHistory(h.store))
}

func TestRunProducesAllArtifacts(t *testing.T) {
	h := newHarness(t)

	result, err := h.orchestrator().Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("expected run ID")
	}
	if len(result.Topics) != 2 {
		t.Fatalf("unexpected topics: %v", result.Topics)
	}
	for _, path := range []string{result.Artifacts.Audio, result.Artifacts.Image, result.Artifacts.Video} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("artifact missing: %v", err)
		}
		if info.Size() == 0 {
			t.Fatalf("artifact empty: %s", path)
		}
	}
	if h.synth.text != result.Script {
		t.Fatal("expected synthesizer to receive the composed script")
	}

	run, err := h.store.GetByID(context.Background(), result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != history.StatusCompleted {
		t.Fatalf("unexpected run status: %s", run.Status)
	}
	if run.VideoPath != result.Artifacts.Video {
		t.Fatalf("unexpected recorded video path: %q", run.VideoPath)
	}
}

func TestOverrideSkipsFeed(t *testing.T) {
	h := newHarness(t)
	h.source.err = errors.New("feed should not be called")

	result, err := h.orchestrator().Run(context.Background(), []string{" Custom topic ", "", "Another"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if h.source.calls != 0 {
		t.Fatalf("expected no feed calls, got %d", h.source.calls)
	}
	want := []string{"Custom topic", "Another"}
	if len(result.Topics) != len(want) {
		t.Fatalf("unexpected topics: %v", result.Topics)
	}
	for i, topic := range want {
		if result.Topics[i] != topic {
			t.Fatalf("topic %d: got %q, want %q", i, result.Topics[i], topic)
		}
	}
}

func TestEmptyFeedWithoutOverrideFails(t *testing.T) {
	h := newHarness(t)
	h.source.topics = nil

	_, err := h.orchestrator().Run(context.Background(), nil)
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestFeedErrorClassified(t *testing.T) {
	h := newHarness(t)
	h.source.err = errors.New("connection refused")

	_, err := h.orchestrator().Run(context.Background(), nil)
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestConcurrentTriggerRejected(t *testing.T) {
	h := newHarness(t)
	h.synth.block = make(chan struct{})
	orch := h.orchestrator()

	var wg sync.WaitGroup
	wg.Add(1)
	firstErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		_, err := orch.Run(context.Background(), []string{"topic"})
		firstErr <- err
	}()

	// Wait for the first run to take the lock.
	deadline := time.Now().Add(2 * time.Second)
	for !orch.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("first run never took the lock")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := orch.Run(context.Background(), []string{"topic"})
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(h.synth.block)
	wg.Wait()
	if err := <-firstErr; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if orch.Busy() {
		t.Fatal("expected lock released after run")
	}
}

func TestMissingAudioAfterSynthesisFails(t *testing.T) {
	h := newHarness(t)
	h.synth.skipWrite = true

	result, err := h.orchestrator().Run(context.Background(), nil)
	if !errors.Is(err, services.ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v (result %v)", err, result)
	}

	runs, listErr := h.store.List(context.Background(), 0)
	if listErr != nil {
		t.Fatal(listErr)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].Status != history.StatusFailed {
		t.Fatalf("unexpected status: %s", runs[0].Status)
	}
	if runs[0].ErrorKind != "synthesis_failed" {
		t.Fatalf("unexpected error kind: %q", runs[0].ErrorKind)
	}
	if runs[0].AudioPath != "" {
		t.Fatalf("expected no audio artifact, got %q", runs[0].AudioPath)
	}
}

func TestMuxFailureRecordsPartialArtifacts(t *testing.T) {
	h := newHarness(t)
	h.muxer.err = errors.New("ffmpeg exited with status 1")

	_, err := h.orchestrator().Run(context.Background(), nil)
	if !errors.Is(err, services.ErrEncodingFailed) {
		t.Fatalf("expected ErrEncodingFailed, got %v", err)
	}

	runs, listErr := h.store.List(context.Background(), 0)
	if listErr != nil {
		t.Fatal(listErr)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	run := runs[0]
	if run.ErrorKind != "encoding_failed" {
		t.Fatalf("unexpected error kind: %q", run.ErrorKind)
	}
	if run.AudioPath == "" || run.ImagePath == "" {
		t.Fatalf("expected partial artifacts recorded, got audio=%q image=%q", run.AudioPath, run.ImagePath)
	}
	if run.VideoPath != "" {
		t.Fatalf("unexpected video path: %q", run.VideoPath)
	}
	// Partial artifacts stay on disk for inspection.
	if _, statErr := os.Stat(run.AudioPath); statErr != nil {
		t.Fatalf("expected audio artifact on disk: %v", statErr)
	}
}

func TestImageFetchErrorClassified(t *testing.T) {
	h := newHarness(t)
	h.fetcher.err = errors.New("status 503")

	_, err := h.orchestrator().Run(context.Background(), nil)
	if !errors.Is(err, services.ErrImageFetchFailed) {
		t.Fatalf("expected ErrImageFetchFailed, got %v", err)
	}
}

func TestStageTimeoutClassifiedAsTimeout(t *testing.T) {
	h := newHarness(t)
	h.synth.err = context.DeadlineExceeded

	_, err := h.orchestrator().Run(context.Background(), nil)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestImageQueryUsesConfiguredTerms(t *testing.T) {
	h := newHarness(t)
	h.cfg.Images.Query = "robotics,science"

	if _, err := h.orchestrator().Run(context.Background(), nil); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if h.fetcher.query != "robotics,science" {
		t.Fatalf("unexpected image query: %q", h.fetcher.query)
	}
}
