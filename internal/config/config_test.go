package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"clipforge/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CLIPFORGE_API_TOKEN", "")
	t.Setenv("WHISPER_MODEL", "")
	t.Setenv("CLIPFORGE_SECONDARY_ASSET", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "clipforge", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantInbound := filepath.Join(tempHome, ".local", "share", "clipforge", "inbound")
	if cfg.Paths.InboundDir != wantInbound {
		t.Fatalf("unexpected inbound dir: got %q want %q", cfg.Paths.InboundDir, wantInbound)
	}
	if cfg.Paths.OutboundDir != filepath.Join(tempHome, ".local", "share", "clipforge", "outbound") {
		t.Fatalf("unexpected outbound dir: %q", cfg.Paths.OutboundDir)
	}
	if cfg.Server.Bind != "127.0.0.1:3000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if !cfg.Server.CORS {
		t.Fatal("expected CORS enabled by default")
	}
	if cfg.Server.APIToken != "" {
		t.Fatalf("expected empty api token, got %q", cfg.Server.APIToken)
	}
	if cfg.Stages.DefaultTimeout != 60 {
		t.Fatalf("expected 60s default stage timeout, got %d", cfg.Stages.DefaultTimeout)
	}
	if cfg.Whisper.Model != "base" {
		t.Fatalf("expected whisper model base, got %q", cfg.Whisper.Model)
	}
	if cfg.Tools.FetchFormat != "best" || cfg.Tools.PortraitFetchFormat != "bestvideo+bestaudio/best" {
		t.Fatalf("unexpected fetch formats: %q %q", cfg.Tools.FetchFormat, cfg.Tools.PortraitFetchFormat)
	}
	if cfg.Tools.SecondaryAsset != "" {
		t.Fatalf("expected no secondary asset, got %q", cfg.Tools.SecondaryAsset)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "clipforge.toml")

	type payload struct {
		Paths struct {
			InboundDir  string `toml:"inbound_dir"`
			OutboundDir string `toml:"outbound_dir"`
		} `toml:"paths"`
		Server struct {
			Bind              string `toml:"bind"`
			MaxConcurrentJobs int    `toml:"max_concurrent_jobs"`
		} `toml:"server"`
		Stages struct {
			FetchTimeout int `toml:"fetch_timeout"`
		} `toml:"stages"`
		Whisper struct {
			Model  string `toml:"model"`
			Device string `toml:"device"`
		} `toml:"whisper"`
	}
	custom := payload{}
	custom.Paths.InboundDir = filepath.Join(tempDir, "in")
	custom.Paths.OutboundDir = filepath.Join(tempDir, "out")
	custom.Server.Bind = "0.0.0.0:8080"
	custom.Server.MaxConcurrentJobs = 2
	custom.Stages.FetchTimeout = 90
	custom.Whisper.Model = "small"
	custom.Whisper.Device = "CUDA"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.InboundDir != custom.Paths.InboundDir || cfg.Paths.OutboundDir != custom.Paths.OutboundDir {
		t.Fatalf("unexpected paths: %+v", cfg.Paths)
	}
	if cfg.Server.Bind != "0.0.0.0:8080" || cfg.Server.MaxConcurrentJobs != 2 {
		t.Fatalf("unexpected server section: %+v", cfg.Server)
	}
	if cfg.Stages.FetchTimeout != 90 {
		t.Fatalf("expected fetch timeout 90, got %d", cfg.Stages.FetchTimeout)
	}
	if cfg.Stages.TranscodeTimeout != config.Default().Stages.TranscodeTimeout {
		t.Fatalf("expected untouched transcode timeout default, got %d", cfg.Stages.TranscodeTimeout)
	}
	if cfg.Whisper.Model != "small" || cfg.Whisper.Device != "cuda" {
		t.Fatalf("unexpected whisper section: %+v", cfg.Whisper)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "clipforge.toml")
	if err := os.WriteFile(configPath, []byte("[server]\nbindd = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CLIPFORGE_API_TOKEN", "env-token")
	t.Setenv("WHISPER_MODEL", "medium")
	t.Setenv("CLIPFORGE_SECONDARY_ASSET", "/srv/assets/background.mp4")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.APIToken != "env-token" {
		t.Errorf("expected api token from env, got %q", cfg.Server.APIToken)
	}
	if cfg.Whisper.Model != "medium" {
		t.Errorf("expected whisper model from env, got %q", cfg.Whisper.Model)
	}
	if cfg.Tools.SecondaryAsset != "/srv/assets/background.mp4" {
		t.Errorf("expected secondary asset from env, got %q", cfg.Tools.SecondaryAsset)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.InboundDir, "clipforge") {
		t.Fatalf("expected inbound dir to contain clipforge, got %q", cfg.Paths.InboundDir)
	}
	if cfg.Stages.DefaultTimeout != config.Default().Stages.DefaultTimeout {
		t.Fatalf("sample default_timeout drifted from defaults: %d", cfg.Stages.DefaultTimeout)
	}

	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected CreateSample to refuse overwriting")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero stage timeout", func(c *config.Config) { c.Stages.DefaultTimeout = 0 }},
		{"negative fetch timeout", func(c *config.Config) { c.Stages.FetchTimeout = -1 }},
		{"zero output limit", func(c *config.Config) { c.Stages.OutputLimitKiB = 0 }},
		{"same directories", func(c *config.Config) { c.Paths.OutboundDir = c.Paths.InboundDir }},
		{"missing inbound", func(c *config.Config) { c.Paths.InboundDir = "" }},
		{"negative concurrency", func(c *config.Config) { c.Server.MaxConcurrentJobs = -1 }},
		{"unknown device", func(c *config.Config) { c.Whisper.Device = "tpu" }},
		{"unknown level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"negative cache age", func(c *config.Config) { c.Cache.MaxAgeHours = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
