package utils

import "strings"

// NormalizeEmail lowercases and trims an email so that " A@B.com " and
// "a@b.com" collide on the duplicate check.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeMobile strips whitespace and a leading +91/0 prefix so the same
// number registered in different formats collides on the duplicate check.
func NormalizeMobile(mobile string) string {
	m := strings.TrimSpace(mobile)
	m = strings.ReplaceAll(m, " ", "")
	m = strings.ReplaceAll(m, "-", "")
	m = strings.TrimPrefix(m, "+91")
	if len(m) > 10 {
		m = strings.TrimPrefix(m, "0")
	}
	return m
}
