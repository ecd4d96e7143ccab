package stageexec

import (
	"strings"
	"time"
)

// Command describes one external process invocation.
type Command struct {
	Name    string
	Args    []string
	Timeout time.Duration
	Dir     string
}

// String renders the command for human-readable logs. Arguments that need
// quoting are single-quoted the way a POSIX shell would accept them.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Name))
	for _, arg := range c.Args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	safe := true
	for _, r := range arg {
		if !isSafeRune(r) {
			safe = false
			break
		}
	}
	if safe {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=+,@%", r)
}
