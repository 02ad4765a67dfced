package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateTopics(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return errors.New("video.width and video.height must be positive")
	}
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Retry.BaseDelaySeconds < 0 || c.Retry.MaxDelaySeconds < 0 {
		return errors.New("retry delays must not be negative")
	}
	if c.Retry.MaxDelaySeconds > 0 && c.Retry.MaxDelaySeconds < c.Retry.BaseDelaySeconds {
		return errors.New("retry.max_delay_seconds must not be below retry.base_delay_seconds")
	}
	return nil
}

func (c *Config) validateTopics() error {
	if c.Topics.Limit < 1 {
		return errors.New("topics.limit must be at least 1")
	}
	if c.Topics.SourceTimeoutSeconds < 1 {
		return errors.New("topics.source_timeout_seconds must be at least 1")
	}
	if c.Topics.Reddit.Enabled && len(c.Topics.Reddit.Subreddits) == 0 {
		return errors.New("topics.reddit.subreddits must not be empty when the source is enabled")
	}
	if c.Topics.Feeds.Enabled && len(c.Topics.Feeds.URLs) == 0 {
		return errors.New("topics.feeds.urls must not be empty when the source is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.TokenPath == "" {
		return errors.New("upload.token_path must be set")
	}
	switch c.Upload.Privacy {
	case "private", "public", "unlisted":
	default:
		return fmt.Errorf("upload.privacy: unsupported value %q", c.Upload.Privacy)
	}
	return nil
}
