package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SSEWriter frames events for a long-lived server-sent event stream. Each
// data event is one JSON object on a single data line; keepalives go out as
// comment lines so naive consumers can skip them without parsing JSON.
type SSEWriter struct {
	w       io.Writer
	flusher http.Flusher
}

// NewSSEWriter prepares the response for event streaming and returns the
// writer. The flusher may be nil when the underlying writer cannot flush
// (as in tests against plain buffers).
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, _ := w.(http.Flusher)
	return &SSEWriter{w: w, flusher: flusher}
}

// Write frames one event and flushes it to the client.
func (s *SSEWriter) Write(ev Event) error {
	if ev.Type == EventKeepalive {
		if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
			return err
		}
		s.flush()
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("stream: encode event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *SSEWriter) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
