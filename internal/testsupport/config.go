package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"clipforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Tool binaries point at the working stubs; options may replace them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InboundDir = filepath.Join(base, "inbound")
	cfgVal.Paths.OutboundDir = filepath.Join(base, "outbound")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Stages.DefaultTimeout = 10
	cfgVal.Stages.FetchTimeout = 10
	cfgVal.Stages.TranscodeTimeout = 10
	cfgVal.Stages.TranscribeTimeout = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	binDir := builder.binDir()
	cfgVal.Tools.YTDLPBinary = WriteStub(t, binDir, "yt-dlp", FetchStub)
	cfgVal.Tools.FFmpegBinary = WriteStub(t, binDir, "ffmpeg", FFmpegStub)
	cfgVal.Tools.WhisperBinary = WriteStub(t, binDir, "whisper", WhisperStub(`{"language":"en","segments":[]}`))

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

func (b *configBuilder) binDir() string {
	return filepath.Join(b.baseDir, "bin")
}

// WithFFmpegScript replaces the ffmpeg stub with script.
func WithFFmpegScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools.FFmpegBinary = WriteStub(b.t, b.binDir(), "ffmpeg", script)
	}
}

// WithFetchScript replaces the yt-dlp stub with script.
func WithFetchScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools.YTDLPBinary = WriteStub(b.t, b.binDir(), "yt-dlp", script)
	}
}

// WithWhisperScript replaces the whisper stub with script.
func WithWhisperScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools.WhisperBinary = WriteStub(b.t, b.binDir(), "whisper", script)
	}
}

// WithSecondaryAsset writes a dummy secondary video and configures it.
func WithSecondaryAsset() ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "assets", "secondary.mp4")
		WriteFile(b.t, path, 64)
		b.cfg.Tools.SecondaryAsset = path
	}
}

// WithAPIToken requires bearer auth on job endpoints.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithStubbedBinaries writes no-op stub executables for the provided names
// and prepends them to PATH. If names is empty, the default clipforge
// external binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg", "whisper"}
		}
		pathDir := filepath.Join(b.baseDir, "path-bin")
		for _, name := range names {
			WriteStub(b.t, pathDir, name, "#!/bin/sh\nexit 0\n")
		}
		setPath(b.t, pathDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		b.cfg.Tools.YTDLPBinary = "yt-dlp"
		b.cfg.Tools.FFmpegBinary = "ffmpeg"
		b.cfg.Tools.WhisperBinary = "whisper"
	}
}

func setPath(t testing.TB, value string) {
	old := os.Getenv("PATH")
	if err := os.Setenv("PATH", value); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", old)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.InboundDir)
}
