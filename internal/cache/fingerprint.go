package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"server/internal/domain"
)

var lowerCaser = cases.Lower(language.Und)

// Fingerprint derives the deterministic cache key for a request. Any input
// that changes how content is produced (prompt template, model, moderation
// rules) is part of the key, so stale incompatible results can never be
// served. Content type order is irrelevant.
func Fingerprint(topic string, types []domain.ContentType, promptVersion, model, moderationVersion string) string {
	sorted := make([]string, 0, len(types))
	for _, ct := range types {
		sorted = append(sorted, string(ct))
	}
	sort.Strings(sorted)

	composite := strings.Join([]string{
		normalizeTopic(topic),
		strings.Join(sorted, ","),
		promptVersion,
		model,
		moderationVersion,
	}, "\n")

	sum := sha256.Sum256([]byte(composite))
	return hex.EncodeToString(sum[:])
}

// normalizeTopic case-folds and collapses whitespace so semantically
// identical topics fingerprint identically.
func normalizeTopic(topic string) string {
	return lowerCaser.String(strings.Join(strings.Fields(topic), " "))
}
