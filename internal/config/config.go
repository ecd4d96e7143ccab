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

// Paths contains the working directories.
type Paths struct {
	InboundDir  string `toml:"inbound_dir"`
	OutboundDir string `toml:"outbound_dir"`
	LogDir      string `toml:"log_dir"`
}

// Server contains HTTP listener settings.
type Server struct {
	Bind              string `toml:"bind"`
	APIToken          string `toml:"api_token"`
	MaxConcurrentJobs int    `toml:"max_concurrent_jobs"`
	CORS              bool   `toml:"cors"`
	ReadHeaderTimeout int    `toml:"read_header_timeout"`
	ShutdownTimeout   int    `toml:"shutdown_timeout"`
}

// Tools names the external binaries and their recipe-level options.
type Tools struct {
	YTDLPBinary         string `toml:"ytdlp_binary"`
	FFmpegBinary        string `toml:"ffmpeg_binary"`
	WhisperBinary       string `toml:"whisper_binary"`
	FetchFormat         string `toml:"fetch_format"`
	PortraitFetchFormat string `toml:"portrait_fetch_format"`
	SecondaryAsset      string `toml:"secondary_asset"`
}

// Stages contains per-stage timeouts (seconds) and output capture limits.
type Stages struct {
	DefaultTimeout    int `toml:"default_timeout"`
	FetchTimeout      int `toml:"fetch_timeout"`
	TranscodeTimeout  int `toml:"transcode_timeout"`
	TranscribeTimeout int `toml:"transcribe_timeout"`
	OutputLimitKiB    int `toml:"output_limit_kib"`
}

// Whisper contains transcription settings.
type Whisper struct {
	Model    string `toml:"model"`
	Language string `toml:"language"`
	Device   string `toml:"device"`
}

// Cache controls retention of fetched source videos.
type Cache struct {
	MaxAgeHours int `toml:"max_age_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for clipforge.
//
// Configuration sections by subsystem:
//   - Paths: inbound (fetch cache), outbound (job outputs), and log directories
//   - Server: HTTP bind address, auth token, admission control
//   - Tools: yt-dlp/ffmpeg/whisper binaries and fetch formats
//   - Stages: per-stage timeouts and captured output limits
//   - Whisper: transcription model, language, and device
//   - Cache: fetched source retention for `clipforge cache prune`
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Server  Server  `toml:"server"`
	Tools   Tools   `toml:"tools"`
	Stages  Stages  `toml:"stages"`
	Whisper Whisper `toml:"whisper"`
	Cache   Cache   `toml:"cache"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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
		decoder.DisallowUnknownFields()
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

	defaultPath, err := expandPath(defaultConfigPath)
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

// CreateSample writes a sample configuration file to the specified location.
// An existing file is never overwritten.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("config already exists at %s", path)
		}
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}
