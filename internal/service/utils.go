package service

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// sanitizeUTF8 drops invalid UTF-8 bytes. PDF text layers sometimes carry
// broken sequences that PostgreSQL refuses to store.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// jsonObject returns the span from the first '{' to the last '}' of a model
// reply, which may be wrapped in markdown fences or surrounded by prose.
func jsonObject(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return "", fmt.Errorf("no JSON object in response: %.200s", strings.TrimSpace(content))
	}
	return content[start : end+1], nil
}
