package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"clipforge/internal/config"
)

// MinFreeBytes is the free-space floor below which a directory check fails.
const MinFreeBytes = 1 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minBytes available to unprivileged users.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s (%s free)", path, formatBytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: detail + fmt.Sprintf(", need %s", formatBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckFile verifies that path names a readable regular file.
func CheckFile(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates every external tool the configured recipes need.
// Both the server health endpoint and the CLI check command use it.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []Status {
	requirements := []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Tools.YTDLPBinary,
			Description: "Required to fetch source videos",
			VersionArg:  "--version",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpegBinary,
			Description: "Required for trimming, composing, and caption overlay",
			VersionArg:  "-version",
		},
		{
			Name:        "Whisper",
			Command:     cfg.Tools.WhisperBinary,
			Description: "Required by /add-text-video for transcription",
			Optional:    true,
		},
	}
	return CheckBinaries(ctx, requirements)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
