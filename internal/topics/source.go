package topics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsreel/internal/config"
	"newsreel/internal/logging"
	"newsreel/internal/script"
)

const userAgent = "Newsreel/0.1.0 (news video autopilot)"

// Source yields the ordered trending topic titles for a run.
type Source interface {
	Fetch(ctx context.Context) ([]string, error)
}

// RedditSource reads the top posts of the day from a subreddit's public JSON
// feed. No API key is required.
type RedditSource struct {
	baseURL   string
	subreddit string
	limit     int
	client    *http.Client
	logger    *slog.Logger
}

// NewRedditSource constructs a feed client from configuration.
func NewRedditSource(cfg *config.Config, logger *slog.Logger) *RedditSource {
	timeout := time.Duration(cfg.Topics.TimeoutSeconds) * time.Second
	return &RedditSource{
		baseURL:   strings.TrimRight(cfg.Topics.BaseURL, "/"),
		subreddit: cfg.Topics.Subreddit,
		limit:     cfg.Topics.Limit,
		client:    &http.Client{Timeout: timeout},
		logger:    logging.NewComponentLogger(logger, "topics"),
	}
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				Permalink string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch returns the feed's post titles in ranking order. Titles are
// normalized; posts without a title are skipped.
func (s *RedditSource) Fetch(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/r/%s/top/.json", s.baseURL, url.PathEscape(s.subreddit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	query := req.URL.Query()
	query.Set("limit", strconv.Itoa(s.limit))
	query.Set("t", "day")
	req.URL.RawQuery = query.Encode()
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var payload listing
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	titles := make([]string, 0, len(payload.Data.Children))
	for _, child := range payload.Data.Children {
		title := script.Normalize(child.Data.Title)
		if title == "" {
			continue
		}
		titles = append(titles, title)
	}

	s.logger.Debug("feed fetched",
		logging.String("subreddit", s.subreddit),
		logging.Int("titles", len(titles)))
	return titles, nil
}

// StaticSource returns a fixed topic list. Useful as a stub in tests and for
// deployments that never consult the feed.
type StaticSource []string

func (s StaticSource) Fetch(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}
