package guardrail

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// NewID derives a content-addressed identifier from the given parts.
// Parts are sorted before hashing so the id is independent of argument
// order; identical inputs always produce the same id.
func NewID(parts ...string) string {
	sorted := make([]string, len(parts))
	copy(sorted, parts)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return "gr-" + hex.EncodeToString(sum[:8])
}

// SourceID derives the id for a guardrail as first proposed by a source.
func SourceID(source string, t Type, rule string) string {
	return NewID("src:"+source, "type:"+string(t), "rule:"+rule)
}

// MergedID derives the id for a guardrail produced by combining others.
// The inputs' ids plus the resolution method form the content address.
func MergedID(method string, sourceIDs ...string) string {
	parts := make([]string, 0, len(sourceIDs)+1)
	parts = append(parts, "method:"+method)
	parts = append(parts, sourceIDs...)
	return NewID(parts...)
}
