package utils

import "strings"

// MaskEmail keeps the first two characters of the local part and the domain,
// e.g. "foobar@example.com" -> "fo***@example.com".
func MaskEmail(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}
	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}
	return local + "@" + domain
}
