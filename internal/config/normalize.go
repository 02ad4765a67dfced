package config

import (
	"fmt"
	"os"
	"strings"

	"clipforge/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeLanguages()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	if c.Paths.MusicDir, err = expandPath(c.Paths.MusicDir); err != nil {
		return fmt.Errorf("paths.music_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Upload.TokenPath, err = expandPath(c.Upload.TokenPath); err != nil {
		return fmt.Errorf("upload.token_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	if key, ok := os.LookupEnv("CLIPFORGE_LLM_API_KEY"); ok && strings.TrimSpace(key) != "" {
		c.LLM.APIKey = strings.TrimSpace(key)
	}
	if key, ok := os.LookupEnv("CLIPFORGE_IMAGE_API_KEY"); ok && strings.TrimSpace(key) != "" {
		c.ImageGen.APIKey = strings.TrimSpace(key)
	}
	if key, ok := os.LookupEnv("CLIPFORGE_TTS_API_KEY"); ok && strings.TrimSpace(key) != "" {
		c.Voiceover.APIKey = strings.TrimSpace(key)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.ImageGen.TimeoutSeconds <= 0 {
		c.ImageGen.TimeoutSeconds = defaultImageGenTimeoutSeconds
	}
	if c.Voiceover.TimeoutSeconds <= 0 {
		c.Voiceover.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
}

func (c *Config) normalizeLanguages() {
	langs := language.NormalizeList(c.Languages)
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	c.Languages = langs
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
