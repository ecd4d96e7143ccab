package logging

import (
	"log/slog"
	"time"
)

// Attr is the attribute type accepted by every helper in this package.
type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Error records err under the "error" key. A nil error is rendered
// explicitly so call sites never drop the field.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Alert marks a line for the console handler's highlighted summary.
func Alert(kind string) Attr { return slog.String(FieldAlert, kind) }

// JobID and Stage are shorthands for the two fields nearly every pipeline
// line carries.
func JobID(id string) Attr { return slog.String(FieldJobID, id) }

func Stage(name string) Attr { return slog.String(FieldStage, name) }

// Args converts attrs into the variadic form slog.Logger methods take.
func Args(attrs ...Attr) []any {
	out := make([]any, len(attrs))
	for i := range attrs {
		out[i] = attrs[i]
	}
	return out
}

func hasKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}
