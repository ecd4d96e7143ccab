package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/services"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestDeliverStreamsArtifactAndReleases(t *testing.T) {
	path := writeArtifact(t, "video-bytes")
	rec := httptest.NewRecorder()
	released := 0
	log := []string{"Starting Fetch...", "Command: yt-dlp -o 'a b.mp4'", "50% done; ok!"}

	err := Deliver(context.Background(), rec, Artifact{Path: path, Filename: "ABC_short.mp4"}, log, func() { released++ })
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected release once, got %d", released)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "video-bytes" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "11" {
		t.Fatalf("unexpected content length %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=ABC_short.mp4" {
		t.Fatalf("unexpected disposition %q", got)
	}

	header := rec.Header().Get(LogsHeader)
	if strings.ContainsAny(header, " \"+") {
		t.Fatalf("header not fully escaped: %q", header)
	}
	decoded, err := DecodeLog(header)
	if err != nil {
		t.Fatalf("DecodeLog: %v", err)
	}
	if strings.Join(decoded, "\n") != strings.Join(log, "\n") {
		t.Fatalf("log mismatch: %v", decoded)
	}
}

func TestEncodeLogMatchesEncodeURIComponent(t *testing.T) {
	got, err := EncodeLog([]string{"a b+c"})
	if err != nil {
		t.Fatalf("EncodeLog: %v", err)
	}
	if got != "%5B%22a%20b%2Bc%22%5D" {
		t.Fatalf("unexpected encoding %q", got)
	}
	if empty, _ := EncodeLog(nil); empty != "%5B%5D" {
		t.Fatalf("unexpected empty encoding %q", empty)
	}
}

func TestDeliverMissingArtifactReleasesWithoutWriting(t *testing.T) {
	rec := httptest.NewRecorder()
	released := false
	err := Deliver(context.Background(), rec, Artifact{Path: filepath.Join(t.TempDir(), "missing.mp4")}, nil, func() { released = true })

	var dErr *DeliveryError
	if !errors.As(err, &dErr) || dErr.Op != "open" || dErr.Committed {
		t.Fatalf("expected uncommitted open failure, got %v", err)
	}
	if !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected delivery marker, got %v", err)
	}
	if !released {
		t.Fatal("expected release on failure")
	}
	if rec.Header().Get(LogsHeader) != "" {
		t.Fatal("expected no headers written")
	}
}

type brokenWriter struct {
	header http.Header
	status int
}

func (w *brokenWriter) Header() http.Header {
	if w.header == nil {
		w.header = http.Header{}
	}
	return w.header
}

func (w *brokenWriter) WriteHeader(status int) { w.status = status }

func (w *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDeliverWriteFailureIsCommitted(t *testing.T) {
	path := writeArtifact(t, "video-bytes")
	w := &brokenWriter{}
	released := false
	err := Deliver(context.Background(), w, Artifact{Path: path, Filename: "x.mp4"}, []string{"done"}, func() { released = true })

	var dErr *DeliveryError
	if !errors.As(err, &dErr) || !dErr.Committed || dErr.Op != "write" {
		t.Fatalf("expected committed write failure, got %v", err)
	}
	if w.status != http.StatusOK {
		t.Fatalf("expected status committed before body, got %d", w.status)
	}
	if !released {
		t.Fatal("expected release after failed write")
	}
}

func TestDeliverCanceledContext(t *testing.T) {
	path := writeArtifact(t, "video-bytes")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	err := Deliver(ctx, rec, Artifact{Path: path, Filename: "x.mp4"}, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
}
