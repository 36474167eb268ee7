package dashboard

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"

	"newsreel/internal/history"
	"newsreel/internal/logging"
	"newsreel/internal/services"
)

const (
	sessionCookie = "newsreel_session"
	flashCookie   = "newsreel_flash"

	recentRunLimit = 10
)

type loginData struct {
	Error string
}

type homeData struct {
	TopicsText string
	Runs       []*history.Run
	Busy       bool
	Flash      string
	FlashKind  string
}

func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || !s.sessions.Valid(cookie.Value) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "login.html", loginData{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")
		if !s.checkCredentials(username, password) {
			s.logger.Warn("login rejected",
				logging.String("username", username),
				logging.String("error_kind", services.Kind(services.ErrAuthenticationFailed)))
			w.WriteHeader(http.StatusUnauthorized)
			s.render(w, "login.html", loginData{Error: "Invalid username or password."})
			return
		}

		token := s.sessions.Create()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   int(sessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		s.logger.Info("administrator logged in")
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// checkCredentials compares both fields in constant time and accepts only
// when both match.
func (s *Server) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Admin.Username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Admin.Password))
	return userOK&passOK == 1
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := homeData{
		TopicsText: strings.Join(s.topics.Topics(), "\n"),
		Busy:       s.trigger.Busy(),
	}
	data.Flash, data.FlashKind = s.takeFlash(w, r)

	if s.history != nil {
		runs, err := s.history.List(r.Context(), recentRunLimit)
		if err != nil {
			s.logger.Warn("failed to list run history", logging.Error(err))
		} else {
			data.Runs = runs
		}
	}

	s.render(w, "dashboard.html", data)
}

func (s *Server) handleTopicsSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	topics := strings.Split(r.PostFormValue("topics"), "\n")
	if err := s.topics.Replace(topics); err != nil {
		s.logger.Error("topic save failed", logging.Error(err))
		s.setFlash(w, "error", "Saving the topic list failed: "+err.Error())
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	s.setFlash(w, "ok", "Topic list saved.")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// A non-empty stored topic list overrides the feed.
	result, err := s.trigger.Run(r.Context(), s.topics.Topics())
	if err != nil {
		s.setFlash(w, "error", "Run failed: "+services.Kind(err))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	s.setFlash(w, "ok", "Run completed: "+result.Artifacts.Video)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template render failed",
			logging.String("template", name),
			logging.Error(err))
	}
}

// setFlash stores a one-shot message shown on the next dashboard render.
func (s *Server) setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

// takeFlash reads and clears the pending flash message.
func (s *Server) takeFlash(w http.ResponseWriter, r *http.Request) (message, kind string) {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return "", ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", ""
	}
	kind, message, ok := strings.Cut(decoded, "|")
	if !ok {
		return "", ""
	}
	return message, kind
}
