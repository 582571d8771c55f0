package stream

import (
	"server/internal/domain"
)

// EventType discriminates stream events on the wire.
type EventType string

const (
	EventStatus    EventType = "status"
	EventContent   EventType = "content"
	EventKeepalive EventType = "keepalive"
	EventError     EventType = "error"
	EventComplete  EventType = "complete"
)

// Event is the tagged union sent over the one-way event stream. Exactly one
// variant's fields are populated per event; keepalives carry nothing and are
// framed out-of-band as comment lines.
type Event struct {
	Type EventType `json:"type"`

	// status
	Message string `json:"message,omitempty"`

	// content
	Chunk       string             `json:"chunk,omitempty"`
	Progress    int                `json:"progress"`
	ContentType domain.ContentType `json:"content_type,omitempty"`

	// error
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`

	// complete
	Complete *CompletePayload `json:"result,omitempty"`
}

// CompletePayload carries every requested content type in full; the chunked
// stream is presentation only and this payload is authoritative.
type CompletePayload struct {
	Content            string                     `json:"content"`
	SocialMediaContent string                     `json:"social_media_content"`
	AudioContent       string                     `json:"audio_content"`
	VideoContent       string                     `json:"video_content"`
	Lengths            map[domain.ContentType]int `json:"lengths"`
	Cached             bool                       `json:"cached"`
	Model              string                     `json:"model"`
	PromptVersion      string                     `json:"prompt_version"`
}

// NewCompletePayload maps per-type texts into the wire payload.
func NewCompletePayload(texts map[domain.ContentType]string, cached bool, model, promptVersion string) *CompletePayload {
	p := &CompletePayload{
		Content:            texts[domain.ContentTypeBlog],
		SocialMediaContent: texts[domain.ContentTypeSocial],
		AudioContent:       texts[domain.ContentTypeAudio],
		VideoContent:       texts[domain.ContentTypeVideo],
		Lengths:            make(map[domain.ContentType]int, len(texts)),
		Cached:             cached,
		Model:              model,
		PromptVersion:      promptVersion,
	}
	for ct, text := range texts {
		p.Lengths[ct] = len(text)
	}
	return p
}

func Status(message string) Event {
	return Event{Type: EventStatus, Message: message}
}

func Keepalive() Event {
	return Event{Type: EventKeepalive}
}

func Error(kind domain.ErrorKind, message string) Event {
	return Event{Type: EventError, ErrorKind: kind, Message: message}
}

func Complete(payload *CompletePayload) Event {
	return Event{Type: EventComplete, Complete: payload}
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventError || e.Type == EventComplete
}
