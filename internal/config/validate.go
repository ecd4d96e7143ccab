package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStages(); err != nil {
		return err
	}
	if err := c.validateWhisper(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Cache.MaxAgeHours < 0 {
		return errors.New("cache.max_age_hours must be >= 0")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InboundDir == "" {
		return errors.New("paths.inbound_dir must be set")
	}
	if c.Paths.OutboundDir == "" {
		return errors.New("paths.outbound_dir must be set")
	}
	if filepath.Clean(c.Paths.InboundDir) == filepath.Clean(c.Paths.OutboundDir) {
		return errors.New("paths.inbound_dir and paths.outbound_dir must differ")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.MaxConcurrentJobs < 0 {
		return errors.New("server.max_concurrent_jobs must be >= 0 (0 disables the limit)")
	}
	return nil
}

func (c *Config) validateStages() error {
	if err := ensurePositiveMap(map[string]int{
		"stages.default_timeout":    c.Stages.DefaultTimeout,
		"stages.fetch_timeout":      c.Stages.FetchTimeout,
		"stages.transcode_timeout":  c.Stages.TranscodeTimeout,
		"stages.transcribe_timeout": c.Stages.TranscribeTimeout,
		"stages.output_limit_kib":   c.Stages.OutputLimitKiB,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWhisper() error {
	switch c.Whisper.Device {
	case "", "cpu", "cuda":
		return nil
	default:
		return fmt.Errorf("whisper.device must be cpu or cuda, got %q", c.Whisper.Device)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
