package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTopics(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

// ValidateAdmin checks that dashboard credentials are present. Only the serve
// path requires them; one-shot CLI runs work without an admin account.
func (c *Config) ValidateAdmin() error {
	if c.Admin.Username == "" {
		return errors.New("admin.username must be set to serve the dashboard")
	}
	if c.Admin.Password == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/newsreel/config.toml"
		}
		return fmt.Errorf("admin.password is required. Set NEWSREEL_ADMIN_PASSWORD or edit %s (create with 'newsreel config init')", defaultPath)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTopics() error {
	if c.Topics.BaseURL == "" {
		return errors.New("topics.base_url must be set")
	}
	if c.Topics.Subreddit == "" {
		return errors.New("topics.subreddit must be set")
	}
	if c.Topics.Limit <= 0 || c.Topics.Limit > 25 {
		return errors.New("topics.limit must be between 1 and 25")
	}
	if c.Topics.TimeoutSeconds <= 0 {
		return errors.New("topics.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if c.Speech.BaseURL == "" {
		return errors.New("speech.base_url must be set")
	}
	if c.Speech.Language == "" {
		return errors.New("speech.language must be set")
	}
	if c.Speech.ChunkLimit <= 0 {
		return errors.New("speech.chunk_limit must be positive")
	}
	if c.Speech.TimeoutSeconds <= 0 {
		return errors.New("speech.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.BaseURL == "" {
		return errors.New("images.base_url must be set")
	}
	if c.Images.Width <= 0 || c.Images.Height <= 0 {
		return errors.New("images.width and images.height must be positive")
	}
	if c.Images.TimeoutSeconds <= 0 {
		return errors.New("images.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if strings.TrimSpace(c.Encoder.FFmpegBinary) == "" {
		return errors.New("encoder.ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.Encoder.FFprobeBinary) == "" {
		return errors.New("encoder.ffprobe_binary must be set")
	}
	if c.Encoder.TimeoutSeconds <= 0 {
		return errors.New("encoder.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.RunTimeoutSeconds <= 0 {
		return errors.New("workflow.run_timeout_seconds must be positive")
	}
	return nil
}
