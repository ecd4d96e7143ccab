package captions_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/captions"
)

// getToken mirrors ffmpeg's av_get_token: backslash escapes the next byte,
// single quotes protect everything up to the closing quote, and unescaped
// trailing whitespace is dropped.
func getToken(s, term string) (string, string) {
	s = strings.TrimLeft(s, " \n\t\r")
	var out []byte
	end := 0
	i := 0
	for i < len(s) && !strings.ContainsRune(term, rune(s[i])) {
		c := s[i]
		i++
		switch {
		case c == '\\' && i < len(s):
			out = append(out, s[i])
			i++
			end = len(out)
		case c == '\'':
			for i < len(s) && s[i] != '\'' {
				out = append(out, s[i])
				i++
			}
			if i < len(s) {
				i++
				end = len(out)
			}
		default:
			out = append(out, c)
		}
	}
	for len(out) > end && strings.ContainsRune(" \n\t\r", rune(out[len(out)-1])) {
		out = out[:len(out)-1]
	}
	return string(out), s[i:]
}

// parseGraph decodes a chain of filters into their names and option maps.
func parseGraph(t *testing.T, graph string) []map[string]string {
	t.Helper()
	var filters []map[string]string
	rest := graph
	for rest != "" {
		name, tail := getToken(rest, "=,;[")
		if name != "drawtext" || !strings.HasPrefix(tail, "=") {
			t.Fatalf("unexpected filter %q (rest %q)", name, tail)
		}
		args, tail := getToken(tail[1:], "[],;")
		opts := map[string]string{}
		for args != "" {
			key, after, ok := strings.Cut(args, "=")
			if !ok {
				t.Fatalf("option without value in %q", args)
			}
			value, remaining := getToken(after, ":")
			opts[key] = value
			args = strings.TrimPrefix(remaining, ":")
		}
		filters = append(filters, opts)
		if tail != "" && tail[0] != ',' {
			t.Fatalf("unexpected separator in %q", tail)
		}
		rest = strings.TrimPrefix(tail, ",")
	}
	return filters
}

func TestBuildFilterEmpty(t *testing.T) {
	if got := captions.BuildFilter(captions.Transcript{}); got != "" {
		t.Fatalf("expected empty filter, got %q", got)
	}
}

func TestBuildFilterOrderAndTiming(t *testing.T) {
	transcript := captions.Transcript{Segments: []captions.Segment{
		{Start: 0, End: 2.5, Text: " Hello there"},
		{Start: 2.5, End: 4, Text: "General Kenobi"},
		{Start: 4.25, End: 6.125, Text: "You are\n a bold one"},
	}}
	filters := parseGraph(t, captions.BuildFilter(transcript))
	if len(filters) != 3 {
		t.Fatalf("expected 3 clauses, got %d", len(filters))
	}
	wantEnable := []string{"between(t,0,2.5)", "between(t,2.5,4)", "between(t,4.25,6.125)"}
	wantText := []string{"Hello there", "General Kenobi", "You are a bold one"}
	for i, opts := range filters {
		if opts["enable"] != wantEnable[i] {
			t.Errorf("clause %d enable = %q, want %q", i, opts["enable"], wantEnable[i])
		}
		if opts["text"] != wantText[i] {
			t.Errorf("clause %d text = %q, want %q", i, opts["text"], wantText[i])
		}
		if opts["x"] != "(w-text_w)/2" || opts["y"] != "h-50" || opts["fontsize"] != "24" || opts["fontcolor"] != "yellow" {
			t.Errorf("clause %d unexpected style: %v", i, opts)
		}
		if opts["expansion"] != "none" {
			t.Errorf("clause %d expected expansion=none, got %q", i, opts["expansion"])
		}
	}
}

func TestBuildFilterEscapesSpecialCharacters(t *testing.T) {
	texts := []string{
		"It's 50% done: yes, [really]; ok",
		`back\slash and "double" quotes`,
		"''",
		"%{pts} should stay literal",
	}
	segments := make([]captions.Segment, 0, len(texts))
	for i, text := range texts {
		segments = append(segments, captions.Segment{Start: float64(i), End: float64(i) + 1, Text: text})
	}
	graph := captions.BuildFilter(captions.Transcript{Segments: segments})
	filters := parseGraph(t, graph)
	if len(filters) != len(texts) {
		t.Fatalf("expected %d clauses, got %d (%q)", len(texts), len(filters), graph)
	}
	for i, opts := range filters {
		if opts["text"] != texts[i] {
			t.Errorf("clause %d text = %q, want %q", i, opts["text"], texts[i])
		}
	}
}

func TestBuildFilterSkipsInvalidSegments(t *testing.T) {
	transcript := captions.Transcript{Segments: []captions.Segment{
		{Start: -1, End: 2, Text: "negative"},
		{Start: 3, End: 2, Text: "backwards"},
		{Start: 1, End: 2, Text: "   "},
		{Start: 2, End: 3, Text: "kept"},
	}}
	filters := parseGraph(t, captions.BuildFilter(transcript))
	if len(filters) != 1 || filters[0]["text"] != "kept" {
		t.Fatalf("expected only the valid segment, got %v", filters)
	}
}

func TestLoadWhisperJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.json")
	doc := `{"text":" Hi. Bye.","language":"en","segments":[{"id":0,"seek":0,"start":0.0,"end":1.2,"text":" Hi.","tokens":[1,2]},{"id":1,"seek":0,"start":1.2,"end":2.0,"text":" Bye."}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	transcript, err := captions.LoadWhisperJSON(path)
	if err != nil {
		t.Fatalf("LoadWhisperJSON: %v", err)
	}
	if transcript.Language != "en" || len(transcript.Segments) != 2 {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}
	if transcript.Segments[1].Start != 1.2 || transcript.Segments[1].Text != " Bye." {
		t.Fatalf("unexpected segment: %+v", transcript.Segments[1])
	}

	if _, err := captions.LoadWhisperJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing transcript")
	}
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := captions.LoadWhisperJSON(bad); err == nil {
		t.Fatal("expected error for malformed transcript")
	}
}
