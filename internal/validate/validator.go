package validate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"server/internal/domain"
	"server/internal/infra"
)

// Result is the outcome of validating one content type's raw text.
type Result struct {
	IsValid     bool
	Text        string
	WasRepaired bool
}

// Validator checks raw engine output against the strict per-type schemas and
// renders valid output into a deterministic flat text. It performs no I/O and
// is fully deterministic given its inputs.
type Validator struct {
	logger infra.Logger
}

func NewValidator(logger infra.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidateAndRepair parses raw as the content type's schema, attempting the
// bounded repair sequence once when allowRepair is set. On success the
// returned text is the rendered flat form; on failure the caller falls back
// to cleaned raw text rather than discarding it.
func (v *Validator) ValidateAndRepair(ct domain.ContentType, raw, model string, allowRepair bool) Result {
	parsed, repaired, err := parseStructured(ct, raw, allowRepair)
	if err != nil {
		v.logger.Debug().
			Str("content_type", string(ct)).
			Str("model", model).
			Err(err).
			Msg("validate: strict validation failed")
		return Result{IsValid: false, Text: raw, WasRepaired: false}
	}
	return Result{IsValid: true, Text: parsed, WasRepaired: repaired}
}

func parseStructured(ct domain.ContentType, raw string, allowRepair bool) (string, bool, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false, fmt.Errorf("empty input")
	}

	render, err := decodeAndRender(ct, text)
	if err == nil {
		return render, false, nil
	}
	if !allowRepair {
		return "", false, err
	}

	repairedText := Repair(text)
	if repairedText == text {
		return "", false, err
	}
	render, err = decodeAndRender(ct, repairedText)
	if err != nil {
		return "", false, err
	}
	return render, true, nil
}

// decodeAndRender accepts either the engine's JSON shape or this package's
// own rendered flat form; the latter keeps validation idempotent over
// already-rendered text.
func decodeAndRender(ct domain.ContentType, text string) (string, error) {
	switch ct {
	case domain.ContentTypeBlog:
		p, err := decodeJSON[BlogPost](text)
		if err != nil {
			rendered, ok := parseRenderedBlog(text)
			if !ok {
				return "", err
			}
			p = rendered
		}
		if err := p.Validate(); err != nil {
			return "", err
		}
		return RenderBlog(p), nil
	case domain.ContentTypeSocial:
		s, err := decodeJSON[SocialContent](text)
		if err != nil {
			rendered, ok := parseRenderedSocial(text)
			if !ok {
				return "", err
			}
			s = rendered
		}
		if err := s.Validate(); err != nil {
			return "", err
		}
		return RenderSocial(s), nil
	case domain.ContentTypeAudio:
		a, err := decodeJSON[AudioScript](text)
		if err != nil {
			rendered, ok := parseRenderedAudio(text)
			if !ok {
				return "", err
			}
			a = rendered
		}
		if err := a.Validate(); err != nil {
			return "", err
		}
		return RenderAudio(a), nil
	case domain.ContentTypeVideo:
		vs, err := decodeJSON[VideoScript](text)
		if err != nil {
			rendered, ok := parseRenderedVideo(text)
			if !ok {
				return "", err
			}
			vs = rendered
		}
		if err := vs.Validate(); err != nil {
			return "", err
		}
		return RenderVideo(vs), nil
	}
	return "", fmt.Errorf("no schema for content type %q", ct)
}

func decodeJSON[T any](text string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, fmt.Errorf("parse json: %w", err)
	}
	return out, nil
}

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	bareKey       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
)

// Repair applies the deterministic textual repairs for near-valid JSON, in
// order: strip code fences, clip to the outermost braces, remove trailing
// commas, quote bare object keys.
func Repair(text string) string {
	text = trimCodeFence(text)
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}
	text = trailingComma.ReplaceAllString(text, "$1")
	text = bareKey.ReplaceAllString(text, `$1"$2"$3`)
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
