package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"clipforge/internal/services"
)

// LogsHeader carries the URL-encoded JSON job log on successful responses.
const LogsHeader = "X-Logs"

// Artifact is the file to send and the name the client should save it as.
type Artifact struct {
	Path     string
	Filename string
}

// DeliveryError reports a failure while sending an artifact. Committed is
// true once the status line has been written; the response can no longer
// be changed after that.
type DeliveryError struct {
	Op        string
	Written   int64
	Committed bool
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery %s failed after %d bytes: %v", e.Op, e.Written, e.Err)
}

// Unwrap exposes the delivery marker and the cause.
func (e *DeliveryError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrDelivery}
	}
	return []error{services.ErrDelivery, e.Err}
}

// Deliver writes the artifact as an attachment with the job log in the
// X-Logs header. release runs once on every path, after the body is written
// or the attempt has failed.
func Deliver(ctx context.Context, w http.ResponseWriter, a Artifact, log []string, release func()) (err error) {
	if release != nil {
		defer release()
	}

	file, err := os.Open(a.Path)
	if err != nil {
		return &DeliveryError{Op: "open", Err: err}
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return &DeliveryError{Op: "stat", Err: err}
	}

	header, err := EncodeLog(log)
	if err != nil {
		return &DeliveryError{Op: "encode log", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Op: "write", Err: err}
	}

	h := w.Header()
	h.Set(LogsHeader, header)
	h.Set("Content-Type", "video/mp4")
	h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	w.WriteHeader(http.StatusOK)

	written, err := io.Copy(w, file)
	if err != nil {
		return &DeliveryError{Op: "write", Written: written, Committed: true, Err: err}
	}
	if written != info.Size() {
		return &DeliveryError{Op: "write", Written: written, Committed: true, Err: io.ErrShortWrite}
	}
	return nil
}

// EncodeLog renders log lines as a JSON array escaped like JavaScript's
// encodeURIComponent, so it is safe in a header value.
func EncodeLog(log []string) (string, error) {
	if log == nil {
		log = []string{}
	}
	data, err := json.Marshal(log)
	if err != nil {
		return "", err
	}
	return encodeURIComponent(string(data)), nil
}

// DecodeLog reverses EncodeLog.
func DecodeLog(header string) ([]string, error) {
	raw, err := url.PathUnescape(header)
	if err != nil {
		return nil, err
	}
	var lines []string
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	for _, r := range []string{"!", "'", "(", ")", "*"} {
		escaped = strings.ReplaceAll(escaped, url.QueryEscape(r), r)
	}
	return escaped
}
