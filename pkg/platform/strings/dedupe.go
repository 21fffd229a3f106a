// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// SplitList flattens comma separated values into a trimmed, de-duplicated
// list. Empty items are dropped and first-seen order is preserved.
//
// Example:
//
//	SplitList([]string{"a:9092, b:9092", "a:9092", " "})
//	// Returns: []string{"a:9092", "b:9092"}
func SplitList(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var result []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(item)
			if trimmed == "" {
				continue
			}
			if _, ok := seen[trimmed]; ok {
				continue
			}
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}
