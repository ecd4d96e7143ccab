package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"clipforge/internal/services"
)

// Kind identifies a job artifact.
type Kind string

const (
	KindRawFetch   Kind = "raw-fetch"
	KindTrimmed    Kind = "trimmed"
	KindComposed   Kind = "composed"
	KindCaptioned  Kind = "captioned"
	KindAudio      Kind = "audio"
	KindTranscript Kind = "transcript"
)

// Fetched reports whether artifacts of this kind live in the shared fetch cache.
func (k Kind) Fetched() bool {
	return k == KindRawFetch
}

// Manager resolves artifact paths and manages the working directories.
type Manager struct {
	inboundDir  string
	outboundDir string
}

// New returns a Manager rooted at the given directories.
func New(inboundDir, outboundDir string) *Manager {
	return &Manager{
		inboundDir:  filepath.Clean(inboundDir),
		outboundDir: filepath.Clean(outboundDir),
	}
}

// InboundDir returns the fetch cache directory.
func (m *Manager) InboundDir() string { return m.inboundDir }

// OutboundDir returns the job output directory.
func (m *Manager) OutboundDir() string { return m.outboundDir }

// EnsureDirectories creates both working directories if needed.
func (m *Manager) EnsureDirectories() error {
	for _, dir := range []string{m.inboundDir, m.outboundDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrStorage, "workspace", "ensure directories", "create "+dir, err)
		}
	}
	return nil
}

// ResolvePath returns the path of the artifact of the given kind for jobID.
// It performs no I/O.
func (m *Manager) ResolvePath(jobID string, kind Kind) string {
	switch kind {
	case KindRawFetch:
		return filepath.Join(m.inboundDir, jobID+".mp4")
	case KindTrimmed:
		return filepath.Join(m.outboundDir, jobID+"_cut.mp4")
	case KindComposed:
		return filepath.Join(m.outboundDir, jobID+"_portrait.mp4")
	case KindCaptioned:
		return filepath.Join(m.outboundDir, jobID+"_with_text.mp4")
	case KindAudio:
		return filepath.Join(m.outboundDir, jobID+"_audio.wav")
	case KindTranscript:
		// whisper names its output after the audio file.
		return filepath.Join(m.outboundDir, jobID+"_audio.json")
	default:
		return filepath.Join(m.outboundDir, jobID+"_"+string(kind))
	}
}

// Exists reports whether path names an existing regular file.
func (m *Manager) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes path. A missing file is not an error.
func (m *Manager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrStorage, "workspace", "remove", path, err)
	}
	return nil
}

// FetchLeftovers lists inbound files belonging to jobID other than its
// finished fetch artifact: yt-dlp's .part files and per-format streams
// (<jobID>.f137.mp4) that are only merged and renamed on success.
func (m *Manager) FetchLeftovers(jobID string) []string {
	matches, err := filepath.Glob(filepath.Join(m.inboundDir, jobID+".*"))
	if err != nil {
		return nil
	}
	final := m.ResolvePath(jobID, KindRawFetch)
	leftovers := make([]string, 0, len(matches))
	for _, path := range matches {
		if path != final {
			leftovers = append(leftovers, path)
		}
	}
	return leftovers
}
