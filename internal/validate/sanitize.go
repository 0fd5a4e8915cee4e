package validate

import (
	"strings"
	"unicode"
)

// SanitizeName trims a name and strips control characters.
func SanitizeName(name string) string {
	return StripControlChars(strings.TrimSpace(name))
}

// SanitizeDescription cleans free text for storage: it trims, drops null
// bytes and normalizes line endings.
func SanitizeDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	desc = strings.ReplaceAll(desc, "\x00", "")
	desc = strings.ReplaceAll(desc, "\r\n", "\n")
	return strings.ReplaceAll(desc, "\r", "\n")
}

// SanitizeTag lowercases a tag and drops surrounding whitespace and a
// leading '#'.
func SanitizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "#")
	return strings.ToLower(tag)
}

// StripControlChars removes control characters.
func StripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SafeFilename converts s into a string usable as a file name.
func SafeFilename(s string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' || r == '.':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('-')
		}
	}
	name := strings.Trim(sb.String(), ".")
	if name == "" {
		return "untitled"
	}
	return name
}
