package security

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const redacted = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)password[=:]\s*\S+`),
	regexp.MustCompile(`(?i)token[=:]\s*\S+`),
	regexp.MustCompile(`(?i)key[=:]\s*\S+`),
	regexp.MustCompile(`(?i)secret[=:]\s*\S+`),
	regexp.MustCompile(`(?i)bot\d+:[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)C:\\Users\\[^\\\s]+`),
	regexp.MustCompile(`/home/[^/\s]+`),
	regexp.MustCompile(`/root\b`),
	regexp.MustCompile(`(?i)\S*\.env\b`),
	regexp.MustCompile(`(?i)\S+\.db\b`),
}

// maxSanitizedLength ограничение длины текста ошибки для пользователя
const maxSanitizedLength = 300

// Sanitize убирает из текста ошибки пароли, токены, ключи и пути к файлам.
// Полный текст ошибки остаётся только в серверных логах.
func Sanitize(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString применяет те же правила к произвольной строке
func SanitizeString(s string) string {
	for _, p := range sensitivePatterns {
		s = p.ReplaceAllString(s, redacted)
	}
	s = strings.TrimSpace(s)
	if len(s) > maxSanitizedLength {
		cut := maxSanitizedLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "…"
	}
	return s
}
