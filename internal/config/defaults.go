package config

const (
	defaultDataDir  = "~/.local/share/clipforge"
	defaultMediaDir = "~/.local/share/clipforge/media"
	defaultMusicDir = "~/.local/share/clipforge/music"
	defaultLogDir   = "~/.local/share/clipforge/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "anthropic/claude-sonnet-4"
	defaultLLMTimeoutSeconds = 60

	defaultImageGenBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultImageGenModel          = "gemini-2.0-flash-exp-image-generation"
	defaultImageGenTimeoutSeconds = 90

	defaultTTSBaseURL        = "https://api.elevenlabs.io/v1"
	defaultTTSModelID        = "eleven_multilingual_v2"
	defaultTTSVoice          = "JBFqnCBsd6RMkjVDRZzb"
	defaultTTSTimeoutSeconds = 60

	defaultVideoWidth  = 1080
	defaultVideoHeight = 1920
	defaultVideoFPS    = 30

	defaultRetryMaxAttempts      = 4
	defaultRetryBaseDelaySeconds = 2
	defaultRetryMaxDelaySeconds  = 30

	defaultTopicLimit           = 15
	defaultSourceTimeoutSeconds = 15
	defaultTrendsGeo            = "US"

	defaultUploadTokenPath  = "~/.config/clipforge/youtube_token.json"
	defaultUploadCategoryID = "20"
	defaultUploadPrivacy    = "private"

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			MediaDir: defaultMediaDir,
			MusicDir: defaultMusicDir,
			LogDir:   defaultLogDir,
		},
		Languages: []string{"en"},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		ImageGen: ImageGen{
			BaseURL:        defaultImageGenBaseURL,
			Model:          defaultImageGenModel,
			TimeoutSeconds: defaultImageGenTimeoutSeconds,
		},
		Voiceover: Voiceover{
			BaseURL:        defaultTTSBaseURL,
			ModelID:        defaultTTSModelID,
			Voices:         map[string]string{"en": defaultTTSVoice},
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Video: Video{
			Width:  defaultVideoWidth,
			Height: defaultVideoHeight,
			FPS:    defaultVideoFPS,
		},
		Retry: Retry{
			MaxAttempts:      defaultRetryMaxAttempts,
			BaseDelaySeconds: defaultRetryBaseDelaySeconds,
			MaxDelaySeconds:  defaultRetryMaxDelaySeconds,
		},
		Topics: Topics{
			Limit:                defaultTopicLimit,
			SourceTimeoutSeconds: defaultSourceTimeoutSeconds,
			Reddit: Reddit{
				Enabled:    true,
				Subreddits: []string{"technology", "worldnews"},
			},
			Feeds: Feeds{
				Enabled: true,
				URLs:    []string{"https://hnrss.org/frontpage"},
			},
			Trends: Trends{
				Enabled: true,
				Geo:     defaultTrendsGeo,
			},
			Manual: Manual{
				Enabled: false,
			},
			Twitter: Twitter{
				Enabled: false,
			},
		},
		Upload: Upload{
			TokenPath:  defaultUploadTokenPath,
			CategoryID: defaultUploadCategoryID,
			Privacy:    defaultUploadPrivacy,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
