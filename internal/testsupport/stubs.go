package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// FetchStub mimics yt-dlp: it writes a small file to the -o path and
// answers --version.
const FetchStub = `#!/bin/sh
[ "$1" = "--version" ] && { echo "2025.01.01"; exit 0; }
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then
    out="$2"
    shift
  fi
  shift
done
[ -n "$out" ] || { echo "ERROR: no output path" >&2; exit 2; }
printf 'fetched-media-bytes' > "$out"
echo "[download] 100% of 19B"
`

// PartialFetchStub mimics a yt-dlp download that dies midway: it leaves
// .part fragments next to the -o path and exits 1.
const PartialFetchStub = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then
    out="$2"
    shift
  fi
  shift
done
printf 'partial' > "$out.part"
printf 'partial' > "${out%.mp4}.f137.mp4.part"
echo "ERROR: unable to download video data: HTTP Error 403: Forbidden" >&2
exit 1
`

// FFmpegStub mimics ffmpeg: it writes a small file to the last argument.
// Single-argument calls such as -version exit without writing.
const FFmpegStub = `#!/bin/sh
[ $# -gt 1 ] || exit 0
for last; do :; done
printf 'transcoded-media' > "$last"
echo "frame=  250 fps=0.0 q=-1.0 Lsize=N/A" >&2
`

// FailingFFmpegStub returns an ffmpeg stub that leaves a partial output and
// exits 1 after printing message to stderr.
func FailingFFmpegStub(message string) string {
	return fmt.Sprintf(`#!/bin/sh
[ $# -gt 1 ] || exit 0
for last; do :; done
printf 'partial' > "$last"
echo %q >&2
exit 1
`, message)
}

// WhisperStub returns a whisper stub that writes transcriptJSON to
// <output_dir>/<audio basename>.json.
func WhisperStub(transcriptJSON string) string {
	return fmt.Sprintf(`#!/bin/sh
audio="$1"
dir="."
while [ $# -gt 0 ]; do
  if [ "$1" = "--output_dir" ]; then
    dir="$2"
    shift
  fi
  shift
done
base=$(basename "$audio")
cat > "$dir/${base%%.*}.json" <<'JSON'
%s
JSON
`, transcriptJSON)
}

// WriteStub writes an executable script named name into dir and returns its path.
func WriteStub(t testing.TB, dir, name, script string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
