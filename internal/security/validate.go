package security

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	handlePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{4,31}$`)
)

// ValidateEmail проверяет адрес почты (RFC 5321 ограничения длины + простой шаблон)
func ValidateEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	if !emailPattern.MatchString(email) {
		return false
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || len(local) > 64 {
		return false
	}
	if domain == "" || len(domain) > 253 || !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") ||
		strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return false
	}

	return true
}

// ValidateHandle проверяет username по правилам Telegram: 5-32 символа,
// латиница, цифры и подчёркивание, не начинается с цифры
func ValidateHandle(handle string) bool {
	return handlePattern.MatchString(handle)
}

// NormalizeHandle убирает ведущий @ и пробелы
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

// ParseCallbackID безопасно извлекает положительный ID из callback data
// вида "<prefix><id>", например "perm_approve:123"
func ParseCallbackID(data, prefix string) (int64, bool) {
	if !strings.HasPrefix(data, prefix) {
		return 0, false
	}

	raw := strings.TrimPrefix(data, prefix)
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
