package utils

import "strings"

// NormalizeEmail is the single normalization applied to every email that is
// stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
