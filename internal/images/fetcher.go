package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"newsreel/internal/config"
	"newsreel/internal/logging"
)

const userAgent = "Newsreel/0.1.0 (news video autopilot)"

// Fetcher downloads a still image for a query to a target path.
type Fetcher interface {
	Fetch(ctx context.Context, query, path string) error
}

// HTTPFetcher pulls a random image matching a query from an Unsplash-style
// source endpoint: GET {base}/random/{width}x{height}/?{query}.
type HTTPFetcher struct {
	baseURL string
	width   int
	height  int
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPFetcher constructs an image client from configuration.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) *HTTPFetcher {
	timeout := time.Duration(cfg.Images.TimeoutSeconds) * time.Second
	return &HTTPFetcher{
		baseURL: strings.TrimRight(cfg.Images.BaseURL, "/"),
		width:   cfg.Images.Width,
		height:  cfg.Images.Height,
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "images"),
	}
}

// Fetch streams the image for query to path, replacing any existing file.
// An empty response body is an error; a zero-byte background would produce
// an unwatchable video much later, at the encoding stage.
func (f *HTTPFetcher) Fetch(ctx context.Context, query, path string) error {
	endpoint := fmt.Sprintf("%s/random/%dx%d/", f.baseURL, f.width, f.height)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build image request: %w", err)
	}
	// The source endpoint treats the whole query string as comma-separated
	// search terms rather than key=value pairs.
	req.URL.RawQuery = strings.ReplaceAll(url.QueryEscape(query), "%2C", ",")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image source returned status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("stream image: %w", err)
	}
	if written == 0 {
		return errors.New("image source returned empty body")
	}

	f.logger.Debug("image fetched",
		logging.String("query", query),
		logging.Int64("bytes", written),
		logging.String("image_file", path))
	return out.Close()
}

var queryFolder = cases.Lower(language.English)

// DeriveQuery returns the configured query, or a query derived from the
// first topic when none is configured. Derived queries keep at most three
// words, lowercased with Unicode-aware folding.
func DeriveQuery(configured string, topics []string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	for _, topic := range topics {
		words := strings.Fields(queryFolder.String(topic))
		if len(words) == 0 {
			continue
		}
		if len(words) > 3 {
			words = words[:3]
		}
		return strings.Join(words, ",")
	}
	return "news"
}
