package domain

import "errors"

var (
	ErrEmptyTopic           = errors.New("topic is required")
	ErrNoContentTypes       = errors.New("at least one content type is required")
	ErrUnknownContentType   = errors.New("unknown content type")
	ErrDuplicateContentType = errors.New("duplicate content type")
	ErrEngineUnreachable    = errors.New("generation engine unreachable")
	ErrNoValidContent       = errors.New("no valid content produced")
	ErrCacheMiss            = errors.New("cache entry not found")
)

// ErrorKind is the machine-readable failure taxonomy surfaced to clients so
// UIs can branch without string matching.
type ErrorKind string

const (
	ErrKindConnection  ErrorKind = "CONNECTION"
	ErrKindTimeout     ErrorKind = "TIMEOUT"
	ErrKindInterrupted ErrorKind = "INTERRUPTED"
	ErrKindEmpty       ErrorKind = "EXTRACTION_EMPTY"
	ErrKindUnknown     ErrorKind = "UNKNOWN"
)
