package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeWhisper()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InboundDir, err = expandPath(c.Paths.InboundDir); err != nil {
		return fmt.Errorf("paths.inbound_dir: %w", err)
	}
	if c.Paths.OutboundDir, err = expandPath(c.Paths.OutboundDir); err != nil {
		return fmt.Errorf("paths.outbound_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("CLIPFORGE_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
}

func (c *Config) normalizeTools() error {
	c.Tools.YTDLPBinary = strings.TrimSpace(c.Tools.YTDLPBinary)
	if c.Tools.YTDLPBinary == "" {
		c.Tools.YTDLPBinary = defaultYTDLPBinary
	}
	c.Tools.FFmpegBinary = strings.TrimSpace(c.Tools.FFmpegBinary)
	if c.Tools.FFmpegBinary == "" {
		c.Tools.FFmpegBinary = defaultFFmpegBinary
	}
	c.Tools.WhisperBinary = strings.TrimSpace(c.Tools.WhisperBinary)
	if c.Tools.WhisperBinary == "" {
		c.Tools.WhisperBinary = defaultWhisperBinary
	}
	c.Tools.FetchFormat = strings.TrimSpace(c.Tools.FetchFormat)
	if c.Tools.FetchFormat == "" {
		c.Tools.FetchFormat = defaultFetchFormat
	}
	c.Tools.PortraitFetchFormat = strings.TrimSpace(c.Tools.PortraitFetchFormat)
	if c.Tools.PortraitFetchFormat == "" {
		c.Tools.PortraitFetchFormat = defaultPortraitFetchFormat
	}
	c.Tools.SecondaryAsset = strings.TrimSpace(c.Tools.SecondaryAsset)
	if c.Tools.SecondaryAsset == "" {
		if value, ok := os.LookupEnv("CLIPFORGE_SECONDARY_ASSET"); ok {
			c.Tools.SecondaryAsset = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Tools.SecondaryAsset, err = expandPath(c.Tools.SecondaryAsset); err != nil {
		return fmt.Errorf("tools.secondary_asset: %w", err)
	}
	return nil
}

func (c *Config) normalizeWhisper() {
	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	if c.Whisper.Model == "" {
		if value, ok := os.LookupEnv("WHISPER_MODEL"); ok {
			c.Whisper.Model = strings.TrimSpace(value)
		}
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	c.Whisper.Language = strings.ToLower(strings.TrimSpace(c.Whisper.Language))
	c.Whisper.Device = strings.ToLower(strings.TrimSpace(c.Whisper.Device))
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
