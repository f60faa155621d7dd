// Package strings provides small string-slice helpers.
package strings

import (
	"slices"
	"strings"
)

// DedupeAndTrim trims every element and drops blanks and repeats, keeping the
// first occurrence's position.
//
//	DedupeAndTrim([]string{" student ", "selfie", "student", ""}) // ["student", "selfie"]
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// LastNonBlank returns the last element that is not blank after trimming.
func LastNonBlank(values []string) (string, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if v := strings.TrimSpace(values[i]); v != "" {
			return v, true
		}
	}
	return "", false
}
