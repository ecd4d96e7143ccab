package config

const (
	defaultConfigPath          = "~/.config/clipforge/config.toml"
	defaultInboundDir          = "~/.local/share/clipforge/inbound"
	defaultOutboundDir         = "~/.local/share/clipforge/outbound"
	defaultLogDir              = "~/.local/share/clipforge/logs"
	defaultLogRetentionDays    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultBind                = "127.0.0.1:3000"
	defaultReadHeaderTimeout   = 5
	defaultShutdownTimeout     = 10
	defaultYTDLPBinary         = "yt-dlp"
	defaultFFmpegBinary        = "ffmpeg"
	defaultWhisperBinary       = "whisper"
	defaultFetchFormat         = "best"
	defaultPortraitFetchFormat = "bestvideo+bestaudio/best"
	defaultStageTimeout        = 60
	defaultFetchTimeout        = 600
	defaultTranscodeTimeout    = 300
	defaultTranscribeTimeout   = 1800
	defaultOutputLimitKiB      = 64
	defaultWhisperModel        = "base"
	defaultCacheMaxAgeHours    = 72
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboundDir:  defaultInboundDir,
			OutboundDir: defaultOutboundDir,
			LogDir:      defaultLogDir,
		},
		Server: Server{
			Bind:              defaultBind,
			CORS:              true,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			ShutdownTimeout:   defaultShutdownTimeout,
		},
		Tools: Tools{
			YTDLPBinary:         defaultYTDLPBinary,
			FFmpegBinary:        defaultFFmpegBinary,
			WhisperBinary:       defaultWhisperBinary,
			FetchFormat:         defaultFetchFormat,
			PortraitFetchFormat: defaultPortraitFetchFormat,
		},
		Stages: Stages{
			DefaultTimeout:    defaultStageTimeout,
			FetchTimeout:      defaultFetchTimeout,
			TranscodeTimeout:  defaultTranscodeTimeout,
			TranscribeTimeout: defaultTranscribeTimeout,
			OutputLimitKiB:    defaultOutputLimitKiB,
		},
		Cache: Cache{
			MaxAgeHours: defaultCacheMaxAgeHours,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
