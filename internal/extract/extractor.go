package extract

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/engine"
	"server/internal/infra"
	"server/internal/storage"
)

const (
	fileReadAttempts = 3
	fileReadBackoff  = 200 * time.Millisecond

	// substantialFileLength is the bar for using a whole artifact verbatim
	// when boilerplate stripping finds no structure.
	substantialFileLength = 80
)

// typeKeywords filters task outputs by description. "social" matches both a
// dedicated social task and a combined content task mentioning it.
var typeKeywords = map[domain.ContentType][]string{
	domain.ContentTypeBlog:   {"blog", "article"},
	domain.ContentTypeSocial: {"social"},
	domain.ContentTypeAudio:  {"audio", "podcast"},
	domain.ContentTypeVideo:  {"video"},
}

// artifactKeys are the well-known side-channel files the engine may write as
// a secondary output path, one per content type.
var artifactKeys = map[domain.ContentType]string{
	domain.ContentTypeBlog:   "blog_post.md",
	domain.ContentTypeSocial: "social_media.md",
	domain.ContentTypeAudio:  "audio_script.md",
	domain.ContentTypeVideo:  "video_script.md",
}

var (
	separatorLine   = regexp.MustCompile(`^\s*[-=*_]{3,}\s*$`)
	generatedBanner = regexp.MustCompile(`(?i)^\s*generated\s+on[:\s].*$`)
	fillerPhrase    = regexp.MustCompile(`(?i)^\s*here\s+is\s+(the|your)\b.*$`)
)

// Extractor pulls per-content-type raw text out of a GenerationResult using
// an ordered strategy chain: task outputs first, then side-channel files,
// then string coercion. It is read-only apart from bounded file reads.
type Extractor struct {
	store  *storage.FileStore
	logger infra.Logger

	// backoff is overridable so tests do not sleep for real.
	backoff time.Duration
}

// NewExtractor constructs an Extractor. store may be nil, in which case the
// FILE strategy is skipped.
func NewExtractor(store *storage.FileStore, logger infra.Logger) *Extractor {
	return &Extractor{store: store, logger: logger, backoff: fileReadBackoff}
}

// Extract returns the best available raw text for the given content type,
// tagged with the strategy that produced it. The text may still be trivial;
// the caller decides what trivial means across the whole run.
func (e *Extractor) Extract(ctx context.Context, result *engine.GenerationResult, ct domain.ContentType) domain.ExtractedContent {
	extracted := domain.ExtractedContent{
		ContentType: ct,
		ExtractedAt: time.Now().UTC(),
	}

	if text := e.fromTasks(result, ct); domain.NonTrivial(text) {
		extracted.Text = text
		extracted.Method = domain.MethodObject
		return extracted
	}

	if text := e.fromFile(ctx, ct); domain.NonTrivial(text) {
		extracted.Text = text
		extracted.Method = domain.MethodFile
		e.logger.Debug().Str("content_type", string(ct)).Msg("extract: fell back to artifact file")
		return extracted
	}

	extracted.Text = result.Stringify()
	extracted.Method = domain.MethodStringify
	return extracted
}

// LastResort re-extracts directly from the result's final task output. Used
// once per run when every per-type extraction came back trivial.
func (e *Extractor) LastResort(result *engine.GenerationResult) string {
	last, ok := result.LastTask()
	if !ok {
		return ""
	}
	return StripBoilerplate(last.BestEffortText())
}

// fromTasks scans task outputs most-recent-first, filtering by description
// keywords when a description is present, and probes each matching task for
// a text-bearing field.
func (e *Extractor) fromTasks(result *engine.GenerationResult, ct domain.ContentType) string {
	if result == nil {
		return ""
	}
	keywords := typeKeywords[ct]
	for i := len(result.Tasks) - 1; i >= 0; i-- {
		task := result.Tasks[i]
		if !task.Matches(keywords...) {
			continue
		}
		if text := task.BestEffortText(); text != "" {
			return text
		}
	}
	// No described task matched; a single-task result with no description is
	// still worth probing when only one type was produced.
	if len(result.Tasks) == 1 && strings.TrimSpace(result.Tasks[0].Description) == "" {
		return result.Tasks[0].BestEffortText()
	}
	return ""
}

// fromFile reads the type's well-known artifact with bounded retries; the
// engine may still be flushing the file when extraction starts.
func (e *Extractor) fromFile(ctx context.Context, ct domain.ContentType) string {
	if e.store == nil {
		return ""
	}
	key, ok := artifactKeys[ct]
	if !ok {
		return ""
	}
	var data []byte
	var err error
	for attempt := 0; attempt < fileReadAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ""
			case <-time.After(e.backoff):
			}
		}
		data, err = e.store.Read(ctx, key)
		if err == nil && len(data) > 0 {
			break
		}
	}
	if err != nil || len(data) == 0 {
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn().Err(err).Str("artifact", key).Msg("extract: artifact read failed")
		}
		return ""
	}

	raw := string(data)
	stripped := StripBoilerplate(raw)
	if domain.NonTrivial(stripped) {
		return stripped
	}
	if len(strings.TrimSpace(raw)) > substantialFileLength {
		return strings.TrimSpace(raw)
	}
	return ""
}

// StripBoilerplate removes the known artifact framing: a leading separator
// line, a generated-on banner, and a filler lead-in phrase.
func StripBoilerplate(text string) string {
	lines := strings.Split(text, "\n")
	start := 0
	for start < len(lines) {
		line := lines[start]
		if strings.TrimSpace(line) == "" ||
			separatorLine.MatchString(line) ||
			generatedBanner.MatchString(line) ||
			fillerPhrase.MatchString(line) {
			start++
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}
