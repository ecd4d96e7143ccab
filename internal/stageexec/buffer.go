package stageexec

import (
	"bytes"
	"fmt"
)

// cappedBuffer keeps the first limit bytes written and counts the rest.
// Writes never fail so the child is not blocked on a full pipe.
type cappedBuffer struct {
	buf     bytes.Buffer
	limit   int
	dropped int64
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	switch {
	case room <= 0:
		b.dropped += int64(len(p))
	case len(p) > room:
		b.buf.Write(p[:room])
		b.dropped += int64(len(p) - room)
	default:
		b.buf.Write(p)
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	if b.dropped == 0 {
		return b.buf.String()
	}
	return fmt.Sprintf("%s\n... [truncated %d bytes]", b.buf.String(), b.dropped)
}
