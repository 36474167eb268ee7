package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"newsreel/internal/config"
	"newsreel/internal/history"
	"newsreel/internal/logging"
	"newsreel/internal/pipeline"
	"newsreel/internal/settings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Trigger starts a pipeline run. Satisfied by pipeline.Orchestrator.
type Trigger interface {
	Run(ctx context.Context, override []string) (*pipeline.Result, error)
	Busy() bool
}

// Server serves the admin dashboard: login, topic editor, run trigger, and
// recent run history.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	trigger  Trigger
	topics   *settings.Store
	history  *history.Store
	sessions *sessionStore
	tmpl     *template.Template

	listener net.Listener
	server   *http.Server
}

// New builds the dashboard server. The history store may be nil; the recent
// runs section is then empty.
func New(cfg *config.Config, logger *slog.Logger, trigger Trigger, topics *settings.Store, hist *history.Store) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}

	srv := &Server{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "dashboard"),
		trigger:  trigger,
		topics:   topics,
		history:  hist,
		sessions: newSessionStore(),
		tmpl:     tmpl,
	}

	// The run trigger is synchronous, so the write timeout must outlast a
	// whole pipeline run.
	writeTimeout := 30 * time.Second
	if cfg.Workflow.RunTimeoutSeconds > 0 {
		writeTimeout = time.Duration(cfg.Workflow.RunTimeoutSeconds+30) * time.Second
	}
	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the routing table. Exposed so tests can drive the server
// through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.requireSession(s.handleHome))
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/topics", s.requireSession(s.handleTopicsSave))
	mux.HandleFunc("/run", s.requireSession(s.handleRun))
	return mux
}

// Start binds the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	if bind == "" {
		return errors.New("dashboard bind address is empty")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("dashboard listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("dashboard server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("dashboard listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, letting in-flight requests finish.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}
