package config

const (
	defaultOutputDir            = "~/.local/share/newsreel/output"
	defaultLogDir               = "~/.local/share/newsreel/logs"
	defaultAPIBind              = "127.0.0.1:8409"
	defaultAdminUsername        = "admin"
	defaultFeedBaseURL          = "https://www.reddit.com"
	defaultFeedSubreddit        = "artificial"
	defaultFeedLimit            = 5
	defaultFeedTimeoutSeconds   = 10
	defaultSpeechBaseURL        = "https://translate.google.com/translate_tts"
	defaultSpeechLanguage       = "en"
	defaultSpeechChunkLimit     = 200
	defaultSpeechTimeoutSeconds = 60
	defaultImageBaseURL         = "https://source.unsplash.com"
	defaultImageQuery           = "ai,technology"
	defaultImageWidth           = 1280
	defaultImageHeight          = 720
	defaultImageTimeoutSeconds  = 15
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultAudioBitrate         = "192k"
	defaultEncodeTimeoutSecs    = 300
	defaultRunTimeoutSeconds    = 600
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Admin: Admin{
			Username: defaultAdminUsername,
		},
		Topics: Topics{
			BaseURL:        defaultFeedBaseURL,
			Subreddit:      defaultFeedSubreddit,
			Limit:          defaultFeedLimit,
			TimeoutSeconds: defaultFeedTimeoutSeconds,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			Language:       defaultSpeechLanguage,
			ChunkLimit:     defaultSpeechChunkLimit,
			TimeoutSeconds: defaultSpeechTimeoutSeconds,
		},
		Images: Images{
			BaseURL:        defaultImageBaseURL,
			Query:          defaultImageQuery,
			Width:          defaultImageWidth,
			Height:         defaultImageHeight,
			TimeoutSeconds: defaultImageTimeoutSeconds,
		},
		Encoder: Encoder{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			AudioBitrate:   defaultAudioBitrate,
			TimeoutSeconds: defaultEncodeTimeoutSecs,
		},
		Workflow: Workflow{
			RunTimeoutSeconds: defaultRunTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
