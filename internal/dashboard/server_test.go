package dashboard_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"newsreel/internal/config"
	"newsreel/internal/dashboard"
	"newsreel/internal/logging"
	"newsreel/internal/pipeline"
	"newsreel/internal/services"
	"newsreel/internal/settings"
	"newsreel/internal/testsupport"
)

type fakeTrigger struct {
	result   *pipeline.Result
	err      error
	busy     bool
	override []string
}

func (f *fakeTrigger) Run(ctx context.Context, override []string) (*pipeline.Result, error) {
	f.override = override
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeTrigger) Busy() bool { return f.busy }

type fixture struct {
	cfg     *config.Config
	trigger *fakeTrigger
	topics  *settings.Store
	server  *httptest.Server
	client  *http.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)

	topics, err := settings.Open(cfg.TopicsFilePath(), nil, logging.NewNop())
	if err != nil {
		t.Fatalf("open settings store: %v", err)
	}

	trigger := &fakeTrigger{
		result: &pipeline.Result{
			RunID:     "run-1",
			Artifacts: pipeline.Artifacts{Video: "/out/output_20260101_120000.mp4"},
		},
	}

	srv, err := dashboard.New(cfg, logging.NewNop(), trigger, topics, nil)
	if err != nil {
		t.Fatalf("build dashboard: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{
		cfg:     cfg,
		trigger: trigger,
		topics:  topics,
		server:  ts,
		client:  &http.Client{Jar: jar},
	}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	resp, err := f.client.PostForm(f.server.URL+"/login", url.Values{
		"username": {f.cfg.Admin.Username},
		"password": {f.cfg.Admin.Password},
	})
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
}

func (f *fixture) get(t *testing.T, path string) (string, *http.Response) {
	t.Helper()
	resp, err := f.client.Get(f.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body), resp
}

func (f *fixture) postForm(t *testing.T, path string, values url.Values) string {
	t.Helper()
	resp, err := f.client.PostForm(f.server.URL+path, values)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestUnauthenticatedRequestRedirectsToLogin(t *testing.T) {
	f := newFixture(t)

	body, resp := f.get(t, "/")
	if resp.Request.URL.Path != "/login" {
		t.Fatalf("expected redirect to /login, landed on %s", resp.Request.URL.Path)
	}
	if !strings.Contains(body, "Sign in") {
		t.Fatal("expected login form")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)

	resp, err := f.client.PostForm(f.server.URL+"/login", url.Values{
		"username": {f.cfg.Admin.Username},
		"password": {"wrong"},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Invalid username or password") {
		t.Fatal("expected rejection message")
	}

	// No session was issued.
	if _, home := f.get(t, "/"); home.Request.URL.Path != "/login" {
		t.Fatal("expected dashboard to stay locked")
	}
}

func TestLoginGrantsDashboardAccess(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	body, resp := f.get(t, "/")
	if resp.Request.URL.Path != "/" {
		t.Fatalf("expected dashboard, landed on %s", resp.Request.URL.Path)
	}
	if !strings.Contains(body, "Recent runs") {
		t.Fatal("expected dashboard content")
	}
}

func TestTopicsSaveReplacesList(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	body := f.postForm(t, "/topics", url.Values{
		"topics": {"Robots learn to paint\n\n  Chips get faster  \n"},
	})
	if !strings.Contains(body, "Topic list saved.") {
		t.Fatal("expected save confirmation")
	}

	got := f.topics.Topics()
	want := []string{"Robots learn to paint", "Chips get faster"}
	if len(got) != len(want) {
		t.Fatalf("unexpected topics: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("topic %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunTriggerReportsVideoPath(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	if err := f.topics.Replace([]string{"Stored topic"}); err != nil {
		t.Fatal(err)
	}

	body := f.postForm(t, "/run", nil)
	if !strings.Contains(body, "Run completed: /out/output_20260101_120000.mp4") {
		t.Fatal("expected completion flash with video path")
	}
	if len(f.trigger.override) != 1 || f.trigger.override[0] != "Stored topic" {
		t.Fatalf("expected stored topics as override, got %v", f.trigger.override)
	}
}

func TestRunFailureReportsErrorKind(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.trigger.err = services.Wrap(services.ErrBusy, "pipeline", "trigger", "a run is already in progress", nil)

	body := f.postForm(t, "/run", nil)
	if !strings.Contains(body, "Run failed: busy") {
		t.Fatal("expected failure flash with error kind")
	}
}

func TestBusyPipelineHidesTriggerButton(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.trigger.busy = true

	body, _ := f.get(t, "/")
	if !strings.Contains(body, "A run is currently in progress.") {
		t.Fatal("expected busy notice")
	}
	if strings.Contains(body, "Run pipeline") {
		t.Fatal("expected trigger button hidden while busy")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.postForm(t, "/logout", nil)
	if _, resp := f.get(t, "/"); resp.Request.URL.Path != "/login" {
		t.Fatal("expected dashboard locked after logout")
	}
}

func TestFlashShownOnce(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	body := f.postForm(t, "/topics", url.Values{"topics": {"One"}})
	if !strings.Contains(body, "Topic list saved.") {
		t.Fatal("expected flash on first render")
	}

	body, _ = f.get(t, "/")
	if strings.Contains(body, "Topic list saved.") {
		t.Fatal("expected flash cleared after first render")
	}
}
