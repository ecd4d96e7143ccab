package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"clipforge/internal/config"
	"clipforge/internal/testsupport"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ninbound_dir = %q\noutbound_dir = %q\nlog_dir = %q\n\n"+
			"[tools]\nytdlp_binary = %q\nffmpeg_binary = %q\nwhisper_binary = %q\n\n"+
			"[logging]\nlevel = \"error\"\n",
		cfg.Paths.InboundDir,
		cfg.Paths.OutboundDir,
		cfg.Paths.LogDir,
		cfg.Tools.YTDLPBinary,
		cfg.Tools.FFmpegBinary,
		cfg.Tools.WhisperBinary,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func setupConfig(t *testing.T, opts ...testsupport.ConfigOption) (*config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	for _, dir := range []string{cfg.Paths.InboundDir, cfg.Paths.OutboundDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return cfg, configPath
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "clipforge.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	requireContains(t, string(data), "[paths]")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsPaths(t *testing.T) {
	cfg, configPath := setupConfig(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+configPath)
	requireContains(t, out, "Inbound directory: "+cfg.Paths.InboundDir)
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nstaging_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, configPath); err == nil {
		t.Fatal("expected unknown key to fail validation")
	}
}

func TestCheckRendersDependencyTable(t *testing.T) {
	_, configPath := setupConfig(t)

	// Free space on the test filesystem is outside our control, so only the
	// rendered rows are asserted.
	out, _, _ := runCLI(t, []string{"check"}, configPath)
	requireContains(t, out, "Dependencies")
	requireContains(t, out, "yt-dlp")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "Inbound directory")
	requireContains(t, out, "OK")
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI colors for non-terminal output, got %q", out)
	}
}

func TestCheckFailsWhenRequiredToolMissing(t *testing.T) {
	cfg, configPath := setupConfig(t)
	cfg.Tools.FFmpegBinary = filepath.Join(testsupport.BaseDir(cfg), "missing", "ffmpeg")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"check"}, configPath)
	if err == nil {
		t.Fatal("expected check to fail")
	}
	requireContains(t, err.Error(), "failed")
	requireContains(t, out, "ERROR")
}

func TestCacheListAndPrune(t *testing.T) {
	cfg, configPath := setupConfig(t)

	out, _, err := runCLI(t, []string{"cache", "list"}, configPath)
	if err != nil {
		t.Fatalf("cache list (empty): %v", err)
	}
	requireContains(t, out, "No cached sources")

	stale := filepath.Join(cfg.Paths.InboundDir, "oldvideo01.mp4")
	fresh := filepath.Join(cfg.Paths.InboundDir, "newvideo01.mp4")
	testsupport.WriteFile(t, stale, 64)
	testsupport.WriteFile(t, fresh, 32)
	old := time.Now().Add(-100 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	out, _, err = runCLI(t, []string{"cache", "list"}, configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "oldvideo01")
	requireContains(t, out, "newvideo01")
	requireContains(t, out, "2 cached source(s), 96 bytes")

	out, _, err = runCLI(t, []string{"cache", "prune"}, configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "Removed "+stale)
	requireContains(t, out, "Removed 1 cached source(s)")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale source removed, stat err=%v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh source kept: %v", err)
	}

	out, _, err = runCLI(t, []string{"cache", "prune", "--all"}, configPath)
	if err != nil {
		t.Fatalf("cache prune --all: %v", err)
	}
	requireContains(t, out, "Removed 1 cached source(s)")
	files := testsupport.ListFiles(t, cfg.Paths.InboundDir)
	if len(files) != 0 {
		t.Fatalf("expected empty cache, got %v", files)
	}
}

func TestCachePruneRejectsNegativeAge(t *testing.T) {
	_, configPath := setupConfig(t)
	_, _, err := runCLI(t, []string{"cache", "prune", "--max-age=-1h"}, configPath)
	if err == nil {
		t.Fatal("expected negative max-age to fail")
	}
}

func TestFormatAge(t *testing.T) {
	cases := map[time.Duration]string{
		10 * time.Second: "<1m",
		5 * time.Minute:  "5m",
		3 * time.Hour:    "3h",
		72 * time.Hour:   "3d",
	}
	for in, want := range cases {
		if got := formatAge(in); got != want {
			t.Fatalf("formatAge(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusLabelColors(t *testing.T) {
	if got := statusWarn.label(false); got != "WARN" {
		t.Fatalf("plain label = %q", got)
	}
	text.EnableColors()
	if got := statusError.label(true); !strings.Contains(got, "\x1b[") || !strings.Contains(got, "ERROR") {
		t.Fatalf("expected colored ERROR, got %q", got)
	}
}
