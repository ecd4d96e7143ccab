package captions

import (
	"strconv"
	"strings"
)

// drawtext options shared by every caption.
const captionStyle = ":x=(w-text_w)/2:y=h-50:fontsize=24:fontcolor=yellow:expansion=none"

// BuildFilter returns a filter graph with one drawtext filter per valid
// segment, in transcript order. An empty transcript yields "".
//
// Text is escaped for both levels ffmpeg unescapes: option values are
// single-quoted (a literal quote becomes '\'') and the whole option string is
// then backslash-escaped for the filter graph parser. drawtext expansion is
// disabled so % is literal.
func BuildFilter(t Transcript) string {
	clauses := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if !seg.Valid() {
			continue
		}
		text := strings.Join(strings.Fields(seg.Text), " ")
		if text == "" {
			continue
		}
		var opts strings.Builder
		opts.WriteString("enable='between(t,")
		opts.WriteString(formatSeconds(seg.Start))
		opts.WriteByte(',')
		opts.WriteString(formatSeconds(seg.End))
		opts.WriteString(")':text='")
		opts.WriteString(strings.ReplaceAll(text, "'", `'\''`))
		opts.WriteByte('\'')
		opts.WriteString(captionStyle)
		clauses = append(clauses, "drawtext="+escapeGraph(opts.String()))
	}
	return strings.Join(clauses, ",")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var graphEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`[`, `\[`,
	`]`, `\]`,
	`,`, `\,`,
	`;`, `\;`,
)

func escapeGraph(s string) string {
	return graphEscaper.Replace(s)
}
