package slug

import (
	"regexp"
	"strings"
)

var reKey = regexp.MustCompile(`^[a-z0-9_]{2,32}$`)

// IsKey reports whether s is a well-formed template or transaction-type key:
// lowercase alphanumerics and underscores, 2-32 characters.
func IsKey(s string) bool {
	return reKey.MatchString(s)
}

// Normalize converts a free-form label into key form: lowercase, any run of
// characters outside [a-z0-9_] becomes a single underscore, trimmed to 32
// characters with no leading or trailing underscore.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	out := make([]rune, 0, len(s))
	prevUnderscore := false
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			out = append(out, r)
			prevUnderscore = false
		default:
			if !prevUnderscore {
				out = append(out, '_')
				prevUnderscore = true
			}
		}
		if len(out) >= 32 {
			break
		}
	}
	return strings.Trim(string(out), "_")
}
