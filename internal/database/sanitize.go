package database

import (
	"strconv"
	"strings"
)

// SanitizeName sanitizes a table or column name for SQL compatibility.
// - Replaces invalid characters with underscores
// - Prefixes with "col_" if the name starts with a digit
// - Returns "unnamed" for empty names
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}

	result := make([]rune, 0, len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}

	sanitized := string(result)
	if sanitized != "" && sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "col_" + sanitized
	}

	return sanitized
}

// UniqueNames sanitizes names and suffixes duplicates so every column is distinct.
// Result schemas may repeat a name, e.g. when two joined tables share a column.
// A suffixed name never collides with a name emitted before or after it.
func UniqueNames(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[strings.ToLower(SanitizeName(n))] = true
	}

	used := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		s := SanitizeName(n)
		candidate := s
		for suffix := 2; used[strings.ToLower(candidate)] || (candidate != s && taken[strings.ToLower(candidate)]); suffix++ {
			candidate = s + "_" + strconv.Itoa(suffix)
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}

// QuoteIdent quotes a table or column name for use in SQL statements.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
