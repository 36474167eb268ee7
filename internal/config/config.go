package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// Admin contains dashboard administrator credentials.
type Admin struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Topics contains the trending feed settings and the seed topic list.
type Topics struct {
	BaseURL        string   `toml:"base_url"`
	Subreddit      string   `toml:"subreddit"`
	Limit          int      `toml:"limit"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Defaults       []string `toml:"defaults"`
}

// Speech contains text-to-speech settings.
type Speech struct {
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	ChunkLimit     int    `toml:"chunk_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Images contains background image fetch settings.
type Images struct {
	BaseURL        string `toml:"base_url"`
	Query          string `toml:"query"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Encoder contains settings for the external muxer binaries.
type Encoder struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	AudioBitrate   string `toml:"audio_bitrate"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains pipeline-wide timing limits.
type Workflow struct {
	RunTimeoutSeconds int `toml:"run_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Newsreel.
//
// Configuration sections by subsystem:
//   - Paths: artifact output directory, log directory, dashboard bind address
//   - Admin: dashboard credentials
//   - Topics: trending feed endpoint and seed topic list
//   - Speech: TTS endpoint, language, and request chunking
//   - Images: background image endpoint and dimensions
//   - Encoder: ffmpeg/ffprobe binaries and encode limits
//   - Workflow: whole-run timeout
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Admin    Admin    `toml:"admin"`
	Topics   Topics   `toml:"topics"`
	Speech   Speech   `toml:"speech"`
	Images   Images   `toml:"images"`
	Encoder  Encoder  `toml:"encoder"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/newsreel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("newsreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return err
	}

	// The password may be supplied out-of-band so the config file can be
	// committed without credentials.
	if env := strings.TrimSpace(os.Getenv("NEWSREEL_ADMIN_PASSWORD")); env != "" {
		c.Admin.Password = env
	}

	c.Admin.Username = strings.TrimSpace(c.Admin.Username)
	c.Topics.Subreddit = strings.Trim(strings.TrimSpace(c.Topics.Subreddit), "/")
	c.Speech.Language = strings.TrimSpace(c.Speech.Language)
	c.Images.Query = strings.TrimSpace(c.Images.Query)

	trimmed := make([]string, 0, len(c.Topics.Defaults))
	for _, topic := range c.Topics.Defaults {
		if topic = strings.TrimSpace(topic); topic != "" {
			trimmed = append(trimmed, topic)
		}
	}
	c.Topics.Defaults = trimmed
	return nil
}

// EnsureDirectories creates required directories for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryDBPath returns the location of the run history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// TopicsFilePath returns the location of the persisted topic list.
func (c *Config) TopicsFilePath() string {
	return filepath.Join(c.Paths.LogDir, "topics.json")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
