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

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	MediaDir string `toml:"media_dir"`
	MusicDir string `toml:"music_dir"`
	LogDir   string `toml:"log_dir"`
}

// LLM contains connection settings for the script-writing model.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ImageGen contains connection settings for b-roll and thumbnail generation.
type ImageGen struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Voiceover contains text-to-speech settings.
type Voiceover struct {
	APIKey         string            `toml:"api_key"`
	BaseURL        string            `toml:"base_url"`
	ModelID        string            `toml:"model_id"`
	Voices         map[string]string `toml:"voices"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
}

// Video contains output format constants.
type Video struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	FPS    int `toml:"fps"`
}

// Retry contains the shared backoff policy applied to external stage calls.
type Retry struct {
	MaxAttempts      int `toml:"max_attempts"`
	BaseDelaySeconds int `toml:"base_delay_seconds"`
	MaxDelaySeconds  int `toml:"max_delay_seconds"`
}

// Reddit configures the reddit hot-posts topic source.
type Reddit struct {
	Enabled    bool     `toml:"enabled"`
	Subreddits []string `toml:"subreddits"`
}

// Feeds configures the RSS/Atom topic source.
type Feeds struct {
	Enabled bool     `toml:"enabled"`
	URLs    []string `toml:"urls"`
}

// Trends configures the Google daily-trends topic source.
type Trends struct {
	Enabled bool   `toml:"enabled"`
	Geo     string `toml:"geo"`
}

// Manual configures the hand-curated topic source.
type Manual struct {
	Enabled bool     `toml:"enabled"`
	Entries []string `toml:"entries"`
}

// Twitter configures the optional X trends topic source. Off by default
// since the guest endpoint is heavily rate limited.
type Twitter struct {
	Enabled bool `toml:"enabled"`
}

// Topics contains discovery settings shared by all sources.
type Topics struct {
	Limit                int     `toml:"limit"`
	SourceTimeoutSeconds int     `toml:"source_timeout_seconds"`
	Reddit               Reddit  `toml:"reddit"`
	Feeds                Feeds   `toml:"feeds"`
	Trends               Trends  `toml:"trends"`
	Manual               Manual  `toml:"manual"`
	Twitter              Twitter `toml:"twitter"`
}

// Upload contains YouTube upload settings.
type Upload struct {
	TokenPath  string `toml:"token_path"`
	CategoryID string `toml:"category_id"`
	Privacy    string `toml:"privacy"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipforge.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Languages     []string      `toml:"languages"`
	LLM           LLM           `toml:"llm"`
	ImageGen      ImageGen      `toml:"image_gen"`
	Voiceover     Voiceover     `toml:"voiceover"`
	Video         Video         `toml:"video"`
	Retry         Retry         `toml:"retry"`
	Topics        Topics        `toml:"topics"`
	Upload        Upload        `toml:"upload"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipforge/config.toml")
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
		expanded, err := expandPath(path)
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

	projectPath, err := filepath.Abs("clipforge.toml")
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

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.MediaDir, c.Paths.LogDir, c.LockDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.MusicDir) != "" {
		// Best-effort: a missing music dir only disables background music.
		_ = os.MkdirAll(c.Paths.MusicDir, 0o755)
	}
	return nil
}

// LockDir returns the directory holding per-work-unit lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.LogDir, "locks")
}

// StatePath returns the sqlite database path backing stage state.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.DataDir, "state.db")
}

// WorkDir returns the scratch directory for one work unit and language variant.
func (c *Config) WorkDir(unitID, variant string) string {
	if variant == "" {
		return filepath.Join(c.Paths.MediaDir, "work_"+unitID)
	}
	return filepath.Join(c.Paths.MediaDir, "work_"+unitID+"_"+variant)
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// WhisperBinary returns the whisper CLI executable name.
func (c *Config) WhisperBinary() string {
	return "whisper"
}

func expandPath(pathValue string) (string, error) {
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

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
