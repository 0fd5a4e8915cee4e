package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

const (
	MaskChar          = "*"
	URLMaskLength     = 30
	DefaultMaskLength = 3
)

// SensitiveFields lists attribute names whose values never reach a log.
// Matching is by substring, so "s3_secret_key" is caught by "secret".
var SensitiveFields = map[string]bool{
	"passphrase":  true,
	"password":    true,
	"secret":      true,
	"token":       true,
	"ciphertext":  true,
	"plaintext":   true,
	"credential":  true,
	"private":     true,
	"access_key":  true,
	"session_key": true,
}

var urlPattern = regexp.MustCompile(`https?://[^\s"']+`)

// MaskURL keeps the first URLMaskLength characters of a URL.
func MaskURL(url string) string {
	if len(url) <= URLMaskLength {
		return url
	}
	return url[:URLMaskLength] + strings.Repeat(MaskChar, DefaultMaskLength)
}

// MaskValue masks a value completely.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	return strings.Repeat(MaskChar, min(len(value), 8))
}

// MaskPartial masks a value but shows the first few characters.
func MaskPartial(value string, showChars int) string {
	if len(value) <= showChars {
		return strings.Repeat(MaskChar, len(value))
	}
	return value[:showChars] + strings.Repeat(MaskChar, DefaultMaskLength)
}

// IsSensitiveField checks if a field name indicates sensitive data.
func IsSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	if SensitiveFields[lower] {
		return true
	}
	for keyword := range SensitiveFields {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// MaskString masks non-local URLs inside s.
func MaskString(s string) string {
	return urlPattern.ReplaceAllStringFunc(s, func(url string) string {
		if strings.Contains(url, "localhost") || strings.Contains(url, "127.0.0.1") {
			return url
		}
		return MaskURL(url)
	})
}

// SanitizeLogMessage removes or masks sensitive data from a log message.
func SanitizeLogMessage(msg string) string {
	return MaskString(msg)
}

// MaskArgs masks sensitive values in key/value logging arguments.
func MaskArgs(args []any) []any {
	if len(args) < 2 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)
	for i := 0; i < len(result)-1; i += 2 {
		key, ok := result[i].(string)
		if !ok || !IsSensitiveField(key) {
			continue
		}
		if s, ok := result[i+1].(string); ok {
			result[i+1] = MaskValue(s)
		} else {
			result[i+1] = strings.Repeat(MaskChar, 8)
		}
	}
	return result
}

// MaskMap masks sensitive values in a map, recursing into nested maps.
func MaskMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for key, value := range m {
		switch v := value.(type) {
		case string:
			if IsSensitiveField(key) {
				result[key] = MaskValue(v)
			} else {
				result[key] = MaskString(v)
			}
		case map[string]any:
			if IsSensitiveField(key) {
				result[key] = strings.Repeat(MaskChar, 8)
			} else {
				result[key] = MaskMap(v)
			}
		default:
			if IsSensitiveField(key) {
				result[key] = strings.Repeat(MaskChar, 8)
			} else {
				result[key] = value
			}
		}
	}
	return result
}

// MaskAttr is an slog ReplaceAttr hook. It masks sensitive attributes and
// names LevelCritical.
func MaskAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelCritical {
			return slog.String(slog.LevelKey, "CRITICAL")
		}
		return a
	}
	if a.Key == slog.MessageKey && len(groups) == 0 {
		return slog.String(a.Key, MaskString(a.Value.String()))
	}
	if a.Value.Kind() == slog.KindGroup || !IsSensitiveField(a.Key) {
		return a
	}
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, MaskValue(a.Value.String()))
	}
	return slog.String(a.Key, strings.Repeat(MaskChar, 8))
}
