package config

import "time"

func seconds(v int) time.Duration {
	return time.Duration(v) * time.Second
}

// DefaultStageTimeout bounds stages without a dedicated timeout.
func (c *Config) DefaultStageTimeout() time.Duration { return seconds(c.Stages.DefaultTimeout) }

// FetchTimeout bounds the yt-dlp fetch stage.
func (c *Config) FetchTimeout() time.Duration { return seconds(c.Stages.FetchTimeout) }

// TranscodeTimeout bounds every ffmpeg stage.
func (c *Config) TranscodeTimeout() time.Duration { return seconds(c.Stages.TranscodeTimeout) }

// TranscribeTimeout bounds the whisper stage.
func (c *Config) TranscribeTimeout() time.Duration { return seconds(c.Stages.TranscribeTimeout) }

// OutputLimitBytes is the per-stream capture cap for stage output.
func (c *Config) OutputLimitBytes() int { return c.Stages.OutputLimitKiB * 1024 }

// ReadHeaderTimeout bounds reading request headers.
func (c *Config) ReadHeaderTimeout() time.Duration { return seconds(c.Server.ReadHeaderTimeout) }

// ShutdownTimeout bounds graceful HTTP shutdown.
func (c *Config) ShutdownTimeout() time.Duration { return seconds(c.Server.ShutdownTimeout) }

// CacheMaxAge is the age past which fetched sources are pruned.
func (c *Config) CacheMaxAge() time.Duration {
	return time.Duration(c.Cache.MaxAgeHours) * time.Hour
}
