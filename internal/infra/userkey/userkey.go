// Package userkey holds the user id compatibility lookup used by document
// stores. Older user documents carry a numeric id, newer ones a string id;
// lookups try the numeric form first and fall back to the string form.
package userkey

import (
	"strconv"
	"strings"
)

// Candidates returns the stored representations to try for a canonical id,
// in lookup order: int64 first (when the id parses), then the string.
func Candidates(id string) []any {
	id = strings.TrimSpace(id)
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return []any{n, id}
	}
	return []any{id}
}

// Canonical maps a stored key back to the canonical string id.
func Canonical(key any) string {
	switch k := key.(type) {
	case int64:
		return strconv.FormatInt(k, 10)
	case int:
		return strconv.Itoa(k)
	case string:
		return k
	default:
		return ""
	}
}
