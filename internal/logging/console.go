package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one line per record:
//
//	2026-01-02 15:04:05 INFO  [pipeline] abc123/trim: stage completed event=stage_completed duration=1.2s
//
// Info and above hide debug-only fields (stdout, stderr, args, correlation
// IDs) and report how many were hidden. Debug output shows everything.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	prefix    string
	fields    []field
	addSource bool
}

type field struct {
	key   string
	value slog.Value
}

// Keys rendered first, in this order.
var leadingKeys = []string{
	FieldAlert,
	FieldEventType,
	"command",
	"exit_code",
	"failure_kind",
	"error",
	FieldErrorHint,
	FieldImpact,
	"status",
	"stage_duration",
	"output_path",
}

const maxErrorLen = 200

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = slices.Clone(h.fields)
	for _, a := range attrs {
		next.fields = appendFlattened(next.fields, h.prefix, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	all := slices.Clone(h.fields)
	record.Attrs(func(a slog.Attr) bool {
		all = appendFlattened(all, h.prefix, a)
		return true
	})
	all = lastWins(all)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(formatTimestamp(ts))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	if component := lookupField(all, FieldComponent); component != "" {
		b.WriteString(" [" + component + "]")
	}
	b.WriteByte(' ')
	if subject := formatSubject(lookupField(all, FieldJobID), lookupField(all, FieldStage)); subject != "" {
		b.WriteString(subject + ": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	verbose := record.Level < slog.LevelInfo
	hidden := 0
	for _, f := range orderFields(all) {
		if headerKey(f.key) {
			continue
		}
		if !verbose && debugOnlyKey(f.key) {
			hidden++
			continue
		}
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(consoleValue(f))
	}
	if hidden > 0 {
		b.WriteString(" (+" + strconv.Itoa(hidden) + " hidden)")
	}
	if h.addSource && record.PC != 0 {
		if src := record.Source(); src != nil {
			b.WriteString(" (" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + ")")
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func appendFlattened(dst []field, prefix string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			dst = appendFlattened(dst, inner, ga)
		}
		return dst
	}
	if a.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + a.Key, value: v})
}

// lastWins drops earlier duplicates of a key, keeping the first position
// and the last value.
func lastWins(fields []field) []field {
	seen := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if i, ok := seen[f.key]; ok {
			out[i].value = f.value
			continue
		}
		seen[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func orderFields(fields []field) []field {
	rank := func(key string) int {
		if i := slices.Index(leadingKeys, key); i >= 0 {
			return i
		}
		return len(leadingKeys)
	}
	ordered := slices.Clone(fields)
	slices.SortStableFunc(ordered, func(a, b field) int {
		return rank(a.key) - rank(b.key)
	})
	return ordered
}

func lookupField(fields []field, key string) string {
	for _, f := range fields {
		if f.key == key {
			return strings.TrimSpace(attrString(f.value))
		}
	}
	return ""
}

func consoleValue(f field) string {
	if f.key == "error" {
		msg := strings.TrimSpace(attrString(f.value))
		if len(msg) > maxErrorLen {
			msg = msg[:maxErrorLen] + "…"
		}
		return strconv.Quote(msg)
	}
	return formatValue(f.value)
}

func formatSubject(jobID, stage string) string {
	switch {
	case jobID != "" && stage != "":
		return jobID + "/" + stage
	case jobID != "":
		return jobID
	default:
		return stage
	}
}

func headerKey(key string) bool {
	switch key {
	case FieldComponent, FieldJobID, FieldStage:
		return true
	}
	return false
}

func debugOnlyKey(key string) bool {
	switch key {
	case FieldCorrelationID, "args", "stdout", "stderr":
		return true
	}
	return false
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}
