package engine

import (
	"strings"

	"server/internal/domain"
)

// TaskOutput is one agent task's output inside a GenerationResult. The engine
// gives no guarantees about which fields are populated, so every accessor
// treats each field as potentially absent.
type TaskOutput struct {
	Description string `json:"description,omitempty"`
	Raw         string `json:"raw,omitempty"`
	Output      string `json:"output,omitempty"`
	Content     string `json:"content,omitempty"`
}

// BestEffortText probes the task's text-bearing fields in priority order
// (raw, then output, then content) and returns the first non-trivial value.
func (t TaskOutput) BestEffortText() string {
	for _, candidate := range []string{t.Raw, t.Output, t.Content} {
		if domain.NonTrivial(candidate) {
			return candidate
		}
	}
	return ""
}

// Matches reports whether the task's description mentions any of the given
// keywords. Tasks without a description never match.
func (t TaskOutput) Matches(keywords ...string) bool {
	desc := strings.ToLower(t.Description)
	if strings.TrimSpace(desc) == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(desc, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// GenerationResult is the opaque value returned by the engine: an ordered
// sequence of task outputs. It is owned by a single run and never mutated.
type GenerationResult struct {
	RunID string       `json:"run_id,omitempty"`
	Model string       `json:"model,omitempty"`
	Tasks []TaskOutput `json:"tasks"`
}

// LastTask returns the final task output, or false when there are none.
func (r *GenerationResult) LastTask() (TaskOutput, bool) {
	if r == nil || len(r.Tasks) == 0 {
		return TaskOutput{}, false
	}
	return r.Tasks[len(r.Tasks)-1], true
}

// Stringify coerces the result's final task output to its string
// representation. Used as the extraction strategy of last resort; a result
// with no text-bearing task coerces to the empty string.
func (r *GenerationResult) Stringify() string {
	if r == nil {
		return ""
	}
	last, ok := r.LastTask()
	if !ok {
		return ""
	}
	if text := last.BestEffortText(); text != "" {
		return text
	}
	for _, candidate := range []string{last.Raw, last.Output, last.Content} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}
