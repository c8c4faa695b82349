package mailbox

import (
	"regexp"
	"strings"
	"time"
)

const (
	minCodeLength = 6
	maxCodeLength = 8
)

var (
	digitRun       = regexp.MustCompile(`[0-9]+`)
	scriptOrStyle  = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	htmlTag        = regexp.MustCompile(`<[^>]+>`)
	collapseSpaces = regexp.MustCompile(`\s+`)
)

// ExtractCodes находит все максимальные последовательности из 6, 7 или 8 цифр.
// Порядок первого появления сохраняется, повторы убираются.
func ExtractCodes(text string) []string {
	var codes []string
	seen := make(map[string]struct{})

	for _, run := range digitRun.FindAllString(text, -1) {
		if len(run) < minCodeLength || len(run) > maxCodeLength {
			continue
		}
		if _, ok := seen[run]; ok {
			continue
		}
		seen[run] = struct{}{}
		codes = append(codes, run)
	}

	return codes
}

// MaxClockSkew насколько дата письма может опережать текущее время
const MaxClockSkew = 5 * time.Minute

// IsFresh true, если письмо с датой sent не старше maxAge относительно now.
// Обе даты приводятся к UTC; нулевая дата считается неизвестной.
// Письма из будущего дальше MaxClockSkew отбрасываются.
func IsFresh(sent, now time.Time, maxAge time.Duration) bool {
	if sent.IsZero() {
		return false
	}
	age := now.UTC().Sub(sent.UTC())
	return age >= -MaxClockSkew && age <= maxAge
}

// stripHTML грубо превращает HTML в текст
func stripHTML(html string) string {
	text := scriptOrStyle.ReplaceAllString(html, "")
	text = htmlTag.ReplaceAllString(text, " ")
	text = collapseSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
