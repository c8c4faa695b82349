package handlers

import (
	"regexp"
	"strings"
)

// bareHandlePattern сообщение из одного "@username" без команды
var bareHandlePattern = regexp.MustCompile(`^@[a-zA-Z][a-zA-Z0-9_]{4,31}$`)

// commandArgument текст после команды: "/get_code@relay_bot @ivan" -> "@ivan"
func commandArgument(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	_, rest, found := strings.Cut(text, " ")
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}

// isBareHandle сообщение вида "@username"
func isBareHandle(text string) bool {
	return bareHandlePattern.MatchString(strings.TrimSpace(text))
}
