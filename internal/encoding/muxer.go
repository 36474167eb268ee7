package encoding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"newsreel/internal/config"
	"newsreel/internal/logging"
)

// Muxer combines an audio file and a still image into a video file.
type Muxer interface {
	Mux(ctx context.Context, audioPath, imagePath, outputPath string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr string, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ffmpeg/ffprobe CLI interactions.
type Client struct {
	ffmpeg       string
	ffprobe      string
	audioBitrate string
	timeout      time.Duration
	exec         Executor
	logger       *slog.Logger
}

// New constructs an encoder client from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	ffmpeg := strings.TrimSpace(cfg.Encoder.FFmpegBinary)
	if ffmpeg == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	ffprobe := strings.TrimSpace(cfg.Encoder.FFprobeBinary)
	if ffprobe == "" {
		return nil, errors.New("ffprobe binary required")
	}

	client := &Client{
		ffmpeg:       ffmpeg,
		ffprobe:      ffprobe,
		audioBitrate: cfg.Encoder.AudioBitrate,
		timeout:      time.Duration(cfg.Encoder.TimeoutSeconds) * time.Second,
		exec:         commandExecutor{},
		logger:       logging.NewComponentLogger(logger, "encoding"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Mux loops the image for the duration of the audio track and writes the
// result to outputPath. The video duration matches the audio duration because
// of -shortest together with the looped image input.
func (c *Client) Mux(ctx context.Context, audioPath, imagePath, outputPath string) error {
	if audioPath == "" || imagePath == "" || outputPath == "" {
		return errors.New("audio, image, and output paths are required")
	}

	muxCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		muxCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", c.audioBitrate,
		"-pix_fmt", "yuv420p",
		"-shortest",
		outputPath,
	}

	started := time.Now()
	_, stderr, err := c.exec.Run(muxCtx, c.ffmpeg, args)
	if err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tailLines(stderr, 5))
	}

	c.logger.Debug("mux complete",
		logging.String("video_file", outputPath),
		logging.Duration("elapsed", time.Since(started)))
	return nil
}

// ProbeDuration returns the container duration of the media file in seconds.
func (c *Client) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	stdout, stderr, err := c.exec.Run(ctx, c.ffprobe, args)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, tailLines(stderr, 3))
	}

	durationStr := strings.TrimSpace(stdout)
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", durationStr, err)
	}
	return duration, nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return stdout.String(), stderr.String(), err
}

func tailLines(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}
