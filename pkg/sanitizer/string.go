// Package sanitizer normalizes untrusted input before validation and storage.
package sanitizer

import "strings"

// NormalizeEmail lowercases and trims an email address so lookups and
// uniqueness checks are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TrimText collapses surrounding whitespace on free-form user text.
func TrimText(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeTag lowercases a tag and strips surrounding whitespace so tag
// matching is case-insensitive.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
