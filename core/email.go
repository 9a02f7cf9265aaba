package core

import "strings"

// NormalizeEmail is the single canonical form used for every read and
// write of an email address, in both the profile store and the provider.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
