package whisper

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipforge/internal/captions"
	"clipforge/internal/language"
	"clipforge/internal/services"
	"clipforge/internal/stageexec"
)

const (
	DefaultBinary = "whisper"
	DefaultModel  = "base"
	CUDADevice    = "cuda"
	CPUDevice     = "cpu"
)

// Config captures runtime settings for whisper invocations.
type Config struct {
	Binary   string
	Model    string
	Language string
	Device   string
	Timeout  time.Duration
}

// Runner executes one external command.
type Runner interface {
	Run(ctx context.Context, command stageexec.Command) stageexec.Result
}

// Service provides transcription through the whisper CLI.
type Service struct {
	cfg    Config
	runner Runner
}

// NewService creates a whisper service that runs commands through runner.
func NewService(cfg Config, runner Runner) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg, runner: runner}
}

// Transcribe runs whisper on audioPath and leaves the JSON transcript at
// transcriptPath. The command result is returned even when transcription
// fails so callers can log its output.
func (s *Service) Transcribe(ctx context.Context, audioPath, transcriptPath string) (captions.Transcript, stageexec.Result, error) {
	if audioPath == "" || transcriptPath == "" {
		return captions.Transcript{}, stageexec.Result{}, services.Wrap(services.ErrValidation, "whisper", "transcribe", "audio and transcript paths required", nil)
	}
	outputDir := filepath.Dir(transcriptPath)

	result := s.runner.Run(ctx, stageexec.Command{
		Name:    s.cfg.Binary,
		Args:    s.buildArgs(audioPath, outputDir),
		Timeout: s.cfg.Timeout,
	})
	if result.Err != nil {
		return captions.Transcript{}, result, result.Err
	}

	produced := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))+".json")
	if produced != transcriptPath {
		if err := os.Rename(produced, transcriptPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return captions.Transcript{}, result, services.Wrap(services.ErrExternalTool, "whisper", "transcribe", "no transcript written to "+produced, err)
			}
			return captions.Transcript{}, result, services.Wrap(services.ErrStorage, "whisper", "transcribe", "move transcript", err)
		}
	}

	transcript, err := captions.LoadWhisperJSON(transcriptPath)
	if err != nil {
		return captions.Transcript{}, result, err
	}
	return transcript, result, nil
}

func (s *Service) buildArgs(audioPath, outputDir string) []string {
	args := []string{
		audioPath,
		"--model", s.cfg.Model,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if lang := language.ToISO2(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	switch s.cfg.Device {
	case CUDADevice:
		args = append(args, "--device", CUDADevice)
	case CPUDevice:
		// fp16 is unsupported on CPU and only produces a warning.
		args = append(args, "--device", CPUDevice, "--fp16", "False")
	}
	return args
}
