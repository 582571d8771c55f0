package stream

import (
	"context"
	"time"
	"unicode/utf8"

	"server/internal/domain"
)

const (
	// ChunkSize is the fixed slice size for progressive display.
	ChunkSize = 100
	// keepaliveEvery bounds transport idle time during long chunk runs.
	keepaliveEvery = 10
	// interChunkDelay paces delivery so slow consumers are not overwhelmed.
	interChunkDelay = 30 * time.Millisecond
)

// Encoder slices completed text into CONTENT_CHUNK events with interleaved
// keepalives. This is purely presentational: the authoritative full text is
// always delivered in the terminal COMPLETE event, so a chunking failure can
// never lose data.
type Encoder struct {
	// delay is overridable so tests do not pace for real.
	delay time.Duration
}

func NewEncoder() *Encoder {
	return &Encoder{delay: interChunkDelay}
}

// EncodeChunks emits the text as ordered content events through emit,
// stopping early if ctx is cancelled. Progress is the cumulative percentage
// of bytes delivered.
func (e *Encoder) EncodeChunks(ctx context.Context, ct domain.ContentType, text string, emit func(Event) bool) {
	total := len(text)
	if total == 0 {
		return
	}
	sent := 0
	for i, chunk := range Chunks(text) {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && e.delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.delay):
			}
		}
		sent += len(chunk)
		ev := Event{
			Type:        EventContent,
			Chunk:       chunk,
			Progress:    sent * 100 / total,
			ContentType: ct,
		}
		if !emit(ev) {
			return
		}
		if (i+1)%keepaliveEvery == 0 {
			if !emit(Keepalive()) {
				return
			}
		}
	}
}

// Chunks splits text into slices of at most ChunkSize bytes, never splitting
// a UTF-8 rune across a boundary: each chunk must survive JSON encoding on
// its own. Concatenating the result always reproduces the input exactly.
func Chunks(text string) []string {
	if text == "" {
		return nil
	}
	out := make([]string, 0, (len(text)+ChunkSize-1)/ChunkSize)
	for start := 0; start < len(text); {
		end := start + ChunkSize
		if end >= len(text) {
			out = append(out, text[start:])
			break
		}
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			// Invalid UTF-8 longer than a whole chunk; split on bytes.
			end = start + ChunkSize
		}
		out = append(out, text[start:end])
		start = end
	}
	return out
}
