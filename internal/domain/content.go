package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ContentType enumerates the generated content categories a request may ask for.
type ContentType string

const (
	ContentTypeBlog   ContentType = "blog"
	ContentTypeSocial ContentType = "social"
	ContentTypeAudio  ContentType = "audio"
	ContentTypeVideo  ContentType = "video"
)

// AllContentTypes lists every supported content type in canonical order.
var AllContentTypes = []ContentType{
	ContentTypeBlog,
	ContentTypeSocial,
	ContentTypeAudio,
	ContentTypeVideo,
}

// ParseContentType normalizes a wire value into a known ContentType.
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	switch ct {
	case ContentTypeBlog, ContentTypeSocial, ContentTypeAudio, ContentTypeVideo:
		return ct, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownContentType, s)
}

// Tier enumerates subscription plans. The tier selects the engine model and
// token budget; permission enforcement lives with the billing collaborator.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// ParseTier normalizes a wire value into a known Tier, defaulting to free.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierPro:
		return TierPro
	case TierPremium:
		return TierPremium
	default:
		return TierFree
	}
}

// GenerationRequest is the immutable input of one generation run.
type GenerationRequest struct {
	Topic        string
	Tier         Tier
	ContentTypes []ContentType
	UseCache     bool
}

// Validate checks the request contract before a run is started.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return ErrEmptyTopic
	}
	if len(r.ContentTypes) == 0 {
		return ErrNoContentTypes
	}
	seen := make(map[ContentType]struct{}, len(r.ContentTypes))
	for _, ct := range r.ContentTypes {
		if _, err := ParseContentType(string(ct)); err != nil {
			return err
		}
		if _, dup := seen[ct]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateContentType, ct)
		}
		seen[ct] = struct{}{}
	}
	return nil
}

// SortedContentTypes returns the requested types in canonical order without
// mutating the request.
func (r GenerationRequest) SortedContentTypes() []ContentType {
	out := append([]ContentType(nil), r.ContentTypes...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ExtractionMethod records which extraction strategy produced a text.
type ExtractionMethod string

const (
	MethodObject    ExtractionMethod = "object"
	MethodFile      ExtractionMethod = "file"
	MethodStringify ExtractionMethod = "stringify"
)

// ExtractedContent is the raw per-type text pulled out of an engine result.
// It is consumed immediately by validation and never persisted.
type ExtractedContent struct {
	ContentType ContentType
	Text        string
	Method      ExtractionMethod
	ExtractedAt time.Time
}

// ValidatedContent is the per-type text after schema validation or cleanup.
type ValidatedContent struct {
	ContentType ContentType
	Text        string
	WasValid    bool
	WasRepaired bool
}

// MinContentLength is the non-triviality threshold: extracted or validated
// text at or below this many trimmed characters is treated as absent.
const MinContentLength = 10

// NonTrivial reports whether text clears the minimum length threshold.
func NonTrivial(text string) bool {
	return len(strings.TrimSpace(text)) > MinContentLength
}
