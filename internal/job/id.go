package job

import (
	"net/url"
	"regexp"
	"strings"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Path prefixes whose next segment is the video ID.
var idPathPrefixes = map[string]bool{
	"shorts": true,
	"embed":  true,
	"live":   true,
	"v":      true,
}

// ExtractID derives the job ID from a source URL: the v query parameter, or
// the ID path segment of short-link, shorts, embed, and live URLs. The result
// is safe to use as a file name component.
func ExtractID(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", &ValidationError{Field: "sourceURL", Message: "unparseable URL"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &ValidationError{Field: "sourceURL", Message: "URL must use http or https"}
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", &ValidationError{Field: "sourceURL", Message: "URL has no host"}
	}

	candidate := parsed.Query().Get("v")
	if candidate == "" {
		segments := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
		switch {
		case strings.TrimPrefix(host, "www.") == "youtu.be" && len(segments) > 0:
			candidate = segments[0]
		case len(segments) > 1 && idPathPrefixes[segments[0]]:
			candidate = segments[1]
		}
	}
	if candidate == "" {
		return "", &ValidationError{Field: "sourceURL", Message: "no video ID in URL"}
	}
	if !idPattern.MatchString(candidate) {
		return "", &ValidationError{Field: "sourceURL", Message: "video ID contains unsupported characters"}
	}
	return candidate, nil
}
