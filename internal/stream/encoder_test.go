package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"server/internal/domain"
)

func newTestEncoder() *Encoder {
	e := NewEncoder()
	e.delay = 0
	return e
}

func TestChunksAreLossless(t *testing.T) {
	text := strings.Repeat("abcdefghij", 35) // 350 chars, not a chunk multiple
	text += "tail"
	chunks := Chunks(text)
	if got := strings.Join(chunks, ""); got != text {
		t.Fatal("concatenated chunks do not reproduce the input")
	}
	for i, c := range chunks[:len(chunks)-1] {
		if len(c) != ChunkSize {
			t.Fatalf("chunk %d has size %d, want %d", i, len(c), ChunkSize)
		}
	}
}

func TestChunksNeverSplitRunes(t *testing.T) {
	text := strings.Repeat("流式传输不能截断字符。", 24) // 3-byte runes, boundaries never align with ChunkSize
	chunks := Chunks(text)
	if got := strings.Join(chunks, ""); got != text {
		t.Fatal("concatenated chunks do not reproduce the input")
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, c)
		}
		if len(c) > ChunkSize {
			t.Fatalf("chunk %d has size %d, want at most %d", i, len(c), ChunkSize)
		}
	}
}

func TestMultibyteChunksSurviveTheWire(t *testing.T) {
	text := strings.Repeat("«Прогулка» — это просто. ", 30)
	rec := httptest.NewRecorder()
	w := NewSSEWriter(rec)
	newTestEncoder().EncodeChunks(context.Background(), domain.ContentTypeBlog, text, func(ev Event) bool {
		if err := w.Write(ev); err != nil {
			t.Fatalf("Write returned error: %v", err)
		}
		return true
	})

	var rebuilt strings.Builder
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("data line is not valid JSON: %v", err)
		}
		rebuilt.WriteString(ev.Chunk)
	}
	if rebuilt.String() != text {
		t.Fatalf("wire chunks are lossy: got %d bytes, want %d", rebuilt.Len(), len(text))
	}
}

func TestContentEventAlwaysCarriesProgress(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventContent, Chunk: "x", Progress: 0, ContentType: domain.ContentTypeBlog})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"progress":0`) {
		t.Fatalf("zero progress dropped from the wire: %s", data)
	}
}

func TestEncodeChunksProgressAndKeepalives(t *testing.T) {
	text := strings.Repeat("x", ChunkSize*12)
	var events []Event
	newTestEncoder().EncodeChunks(context.Background(), domain.ContentTypeBlog, text, func(ev Event) bool {
		events = append(events, ev)
		return true
	})

	var contents, keepalives int
	var rebuilt strings.Builder
	lastProgress := 0
	for _, ev := range events {
		switch ev.Type {
		case EventContent:
			contents++
			rebuilt.WriteString(ev.Chunk)
			if ev.Progress < lastProgress {
				t.Fatalf("progress went backwards: %d -> %d", lastProgress, ev.Progress)
			}
			lastProgress = ev.Progress
			if ev.ContentType != domain.ContentTypeBlog {
				t.Fatalf("content type = %q", ev.ContentType)
			}
		case EventKeepalive:
			keepalives++
		default:
			t.Fatalf("unexpected event type %q", ev.Type)
		}
	}
	if contents != 12 {
		t.Fatalf("content events = %d, want 12", contents)
	}
	if keepalives != 1 {
		t.Fatalf("keepalive events = %d, want 1", keepalives)
	}
	if rebuilt.String() != text {
		t.Fatal("chunk stream is not lossless")
	}
	if lastProgress != 100 {
		t.Fatalf("final progress = %d, want 100", lastProgress)
	}
}

func TestEncodeChunksStopsWhenEmitRefuses(t *testing.T) {
	text := strings.Repeat("x", ChunkSize*5)
	count := 0
	newTestEncoder().EncodeChunks(context.Background(), domain.ContentTypeBlog, text, func(Event) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Fatalf("emit called %d times, want 2", count)
	}
}

func TestSSEWriterFramesDataAndComments(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewSSEWriter(rec)

	if err := w.Write(Status("initializing")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := w.Write(Keepalive()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	body := rec.Body.String()
	lines := strings.Split(body, "\n")
	if !strings.HasPrefix(lines[0], "data: ") {
		t.Fatalf("first line = %q, want data line", lines[0])
	}
	var ev Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[0], "data: ")), &ev); err != nil {
		t.Fatalf("data line is not valid JSON: %v", err)
	}
	if ev.Type != EventStatus || ev.Message != "initializing" {
		t.Fatalf("decoded event = %+v", ev)
	}
	if !strings.Contains(body, ": keepalive\n\n") {
		t.Fatal("keepalive comment line missing")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
}
