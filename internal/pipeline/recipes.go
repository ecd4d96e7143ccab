package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"clipforge/internal/captions"
	"clipforge/internal/job"
	"clipforge/internal/language"
	"clipforge/internal/services"
	"clipforge/internal/stageexec"
	"clipforge/internal/workspace"
)

// Recipe names.
const (
	RecipeTrim            = "trim"
	RecipePortraitCompose = "portrait-compose"
	RecipeCaptionOverlay  = "caption-overlay"
)

const (
	defaultFetchBinary    = "yt-dlp"
	defaultFFmpegBinary   = "ffmpeg"
	defaultFetchFormat    = "best"
	defaultPortraitFormat = "bestvideo+bestaudio/best"

	portraitFilter = "[0:v:0]scale=640:360[vid1];[1:v:0]scale=640:360[vid2];[vid1][vid2]vstack=inputs=2"
)

// Transcriber turns an audio file into a transcript written at transcriptPath.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, transcriptPath string) (captions.Transcript, stageexec.Result, error)
}

// Tools configures the external collaborators recipes invoke.
type Tools struct {
	FetchBinary      string
	FFmpegBinary     string
	FetchFormat      string
	PortraitFormat   string
	SecondaryAsset   string
	Transcriber      Transcriber
	FetchTimeout     time.Duration
	TranscodeTimeout time.Duration
}

func (t Tools) withDefaults() Tools {
	if strings.TrimSpace(t.FetchBinary) == "" {
		t.FetchBinary = defaultFetchBinary
	}
	if strings.TrimSpace(t.FFmpegBinary) == "" {
		t.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(t.FetchFormat) == "" {
		t.FetchFormat = defaultFetchFormat
	}
	if strings.TrimSpace(t.PortraitFormat) == "" {
		t.PortraitFormat = defaultPortraitFormat
	}
	return t
}

// Recipes returns every recipe wired to tools.
func Recipes(tools Tools) []Recipe {
	return []Recipe{Trim(tools), PortraitCompose(tools), CaptionOverlay(tools)}
}

// Trim fetches the source and cuts the requested clip without re-encoding.
func Trim(tools Tools) Recipe {
	tools = tools.withDefaults()
	return Recipe{
		Name:   RecipeTrim,
		Route:  "/cut-video",
		Suffix: "_short.mp4",
		Stages: []StageSpec{
			fetchStage(tools, tools.FetchFormat),
			trimStage(tools),
		},
	}
}

// PortraitCompose stacks the clip above the configured secondary asset.
func PortraitCompose(tools Tools) Recipe {
	tools = tools.withDefaults()
	return Recipe{
		Name:   RecipePortraitCompose,
		Route:  "/create-portrait-video",
		Suffix: "_portrait.mp4",
		Stages: []StageSpec{
			fetchStage(tools, tools.PortraitFormat),
			trimStage(tools),
			composeStage(tools),
		},
	}
}

// CaptionOverlay transcribes the clip and burns the transcript in as text.
func CaptionOverlay(tools Tools) Recipe {
	tools = tools.withDefaults()
	return Recipe{
		Name:   RecipeCaptionOverlay,
		Route:  "/add-text-video",
		Suffix: "_with_text.mp4",
		Stages: []StageSpec{
			fetchStage(tools, tools.FetchFormat),
			trimStage(tools),
			extractAudioStage(tools),
			transcribeStage(tools),
			buildFilterStage(),
			overlayStage(tools),
		},
	}
}

func fetchStage(tools Tools, format string) StageSpec {
	return StageSpec{
		Name:      "fetch",
		Output:    workspace.KindRawFetch,
		Timeout:   tools.FetchTimeout,
		Cacheable: true,
		Command: func(r *Run) (Invocation, error) {
			return Invocation{Command: stageexec.Command{
				Name: tools.FetchBinary,
				Args: []string{
					"--no-warnings",
					"--no-playlist",
					"--no-progress",
					"-f", format,
					"--merge-output-format", "mp4",
					"-o", r.Path(workspace.KindRawFetch),
					"--", r.Job.SourceURL,
				},
			}}, nil
		},
	}
}

func trimStage(tools Tools) StageSpec {
	return StageSpec{
		Name:    "trim",
		Output:  workspace.KindTrimmed,
		Timeout: tools.TranscodeTimeout,
		Command: func(r *Run) (Invocation, error) {
			return Invocation{Command: stageexec.Command{
				Name: tools.FFmpegBinary,
				Args: []string{
					"-y", "-hide_banner",
					"-ss", job.FormatSeconds(r.Job.StartOffset),
					"-i", r.Path(workspace.KindRawFetch),
					"-t", job.FormatSeconds(r.Job.ClipDuration),
					"-c", "copy",
					r.Path(workspace.KindTrimmed),
				},
			}}, nil
		},
	}
}

func composeStage(tools Tools) StageSpec {
	return StageSpec{
		Name:    "compose",
		Output:  workspace.KindComposed,
		Timeout: tools.TranscodeTimeout,
		Command: func(r *Run) (Invocation, error) {
			asset := strings.TrimSpace(tools.SecondaryAsset)
			if asset == "" {
				return Invocation{}, &StageFailure{
					Stage:      "compose",
					Kind:       FailurePrecondition,
					Diagnostic: "no secondary asset configured (tools.secondary_asset)",
				}
			}
			if info, err := os.Stat(asset); err != nil || info.IsDir() {
				return Invocation{}, &StageFailure{
					Stage:      "compose",
					Kind:       FailurePrecondition,
					Diagnostic: fmt.Sprintf("secondary asset %s is not a readable file", asset),
					Err:        err,
				}
			}
			return Invocation{Command: stageexec.Command{
				Name: tools.FFmpegBinary,
				Args: []string{
					"-y", "-hide_banner",
					"-i", r.Path(workspace.KindTrimmed),
					"-i", asset,
					"-filter_complex", portraitFilter,
					"-c:v", "libx264", "-crf", "23", "-preset", "veryfast",
					"-c:a", "aac",
					"-shortest",
					r.Path(workspace.KindComposed),
				},
			}}, nil
		},
	}
}

func extractAudioStage(tools Tools) StageSpec {
	return StageSpec{
		Name:    "extract-audio",
		Output:  workspace.KindAudio,
		Timeout: tools.TranscodeTimeout,
		Command: func(r *Run) (Invocation, error) {
			return Invocation{Command: stageexec.Command{
				Name: tools.FFmpegBinary,
				Args: []string{
					"-y", "-hide_banner",
					"-i", r.Path(workspace.KindTrimmed),
					"-vn", "-ac", "1", "-ar", "16000",
					"-c:a", "pcm_s16le",
					r.Path(workspace.KindAudio),
				},
			}}, nil
		},
	}
}

func transcribeStage(tools Tools) StageSpec {
	return StageSpec{
		Name:   "transcribe",
		Output: workspace.KindTranscript,
		Local: func(ctx context.Context, r *Run) (stageexec.Result, error) {
			if tools.Transcriber == nil {
				return stageexec.Result{}, &StageFailure{
					Stage:      "transcribe",
					Kind:       FailurePrecondition,
					Diagnostic: "no transcriber configured",
				}
			}
			transcript, result, err := tools.Transcriber.Transcribe(ctx, r.Path(workspace.KindAudio), r.Path(workspace.KindTranscript))
			if err != nil {
				return result, err
			}
			r.Transcript = transcript
			if transcript.Language != "" {
				r.Note("Detected language: " + language.DisplayName(transcript.Language))
			}
			r.Note(fmt.Sprintf("Transcribed %d segment(s)", len(transcript.Segments)))
			return result, nil
		},
	}
}

func buildFilterStage() StageSpec {
	return StageSpec{
		Name: "build-filter",
		Local: func(_ context.Context, r *Run) (stageexec.Result, error) {
			r.Filter = captions.BuildFilter(r.Transcript)
			return stageexec.Result{}, nil
		},
	}
}

func overlayStage(tools Tools) StageSpec {
	return StageSpec{
		Name:    "overlay",
		Output:  workspace.KindCaptioned,
		Timeout: tools.TranscodeTimeout,
		Command: func(r *Run) (Invocation, error) {
			if r.Filter == "" {
				return Invocation{CopyFrom: r.Path(workspace.KindTrimmed)}, nil
			}
			return Invocation{Command: stageexec.Command{
				Name: tools.FFmpegBinary,
				Args: []string{
					"-y", "-hide_banner",
					"-i", r.Path(workspace.KindTrimmed),
					"-vf", r.Filter,
					"-c:v", "libx264", "-crf", "23", "-preset", "veryfast",
					"-c:a", "copy",
					r.Path(workspace.KindCaptioned),
				},
			}}, nil
		},
	}
}

var errNoStages = errors.New("recipe has no stages")

func validateRecipe(recipe Recipe) error {
	if len(recipe.Stages) == 0 {
		return services.Wrap(services.ErrConfiguration, "pipeline", "validate recipe", recipe.Name, errNoStages)
	}
	for _, spec := range recipe.Stages {
		if (spec.Command == nil) == (spec.Local == nil) {
			return services.Wrap(services.ErrConfiguration, "pipeline", "validate recipe",
				fmt.Sprintf("stage %s must set exactly one of Command or Local", spec.Name), nil)
		}
	}
	return nil
}
