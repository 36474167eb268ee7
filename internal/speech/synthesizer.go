package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"newsreel/internal/config"
	"newsreel/internal/logging"
)

const userAgent = "Newsreel/0.1.0 (news video autopilot)"

// Synthesizer turns narration text into an audio file at a target path.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, path string) error
}

// HTTPSynthesizer speaks text through a translate-style TTS endpoint that
// returns MP3 audio for a GET request. Requests are capped at a character
// limit, so longer scripts are split at sentence boundaries and the MP3
// responses appended to one file; MP3 frame streams concatenate cleanly.
type HTTPSynthesizer struct {
	baseURL    string
	language   string
	chunkLimit int
	client     *http.Client
	logger     *slog.Logger
}

// NewHTTPSynthesizer constructs a TTS client from configuration.
func NewHTTPSynthesizer(cfg *config.Config, logger *slog.Logger) *HTTPSynthesizer {
	timeout := time.Duration(cfg.Speech.TimeoutSeconds) * time.Second
	return &HTTPSynthesizer{
		baseURL:    cfg.Speech.BaseURL,
		language:   cfg.Speech.Language,
		chunkLimit: cfg.Speech.ChunkLimit,
		client:     &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "speech"),
	}
}

// Synthesize writes spoken audio for text to path, replacing any existing
// file. Empty text is rejected before any network traffic.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, path string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return errors.New("no text to synthesize")
	}

	chunks := SplitChunks(trimmed, s.chunkLimit)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer out.Close()

	for i, chunk := range chunks {
		if err := s.fetchChunk(ctx, chunk, i, len(chunks), out); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	s.logger.Debug("synthesis complete",
		logging.Int("chunks", len(chunks)),
		logging.Int("characters", len(trimmed)),
		logging.String("audio_file", path))
	return out.Close()
}

func (s *HTTPSynthesizer) fetchChunk(ctx context.Context, chunk string, index, total int, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build tts request: %w", err)
	}

	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("client", "tw-ob")
	query.Set("tl", s.language)
	query.Set("q", chunk)
	query.Set("idx", strconv.Itoa(index))
	query.Set("total", strconv.Itoa(total))
	query.Set("textlen", strconv.Itoa(len(chunk)))
	req.URL.RawQuery = query.Encode()
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts returned status %d", resp.StatusCode)
	}

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("stream audio: %w", err)
	}
	if written == 0 {
		return errors.New("tts returned empty body")
	}
	return nil
}

// SplitChunks breaks text into pieces no longer than limit characters,
// preferring sentence boundaries, then word boundaries. A limit <= 0 returns
// the whole text as one chunk.
func SplitChunks(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range splitSentences(text) {
		if len(sentence) > limit {
			flushChunk(&chunks, &current)
			chunks = append(chunks, splitWords(sentence, limit)...)
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(sentence) > limit {
			flushChunk(&chunks, &current)
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flushChunk(&chunks, &current)
	return chunks
}

func flushChunk(chunks *[]string, current *strings.Builder) {
	if current.Len() == 0 {
		return
	}
	*chunks = append(*chunks, current.String())
	current.Reset()
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?', '\n':
			end := i + 1
			sentence := strings.TrimSpace(text[start:end])
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = end
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func splitWords(sentence string, limit int) []string {
	words := strings.Fields(sentence)
	var chunks []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
