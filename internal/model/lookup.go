package model

import (
	"errors"
	"strings"
)

// LookupKind способ поиска владельца
type LookupKind int

const (
	ByHandle LookupKind = iota + 1
	ByEmail
)

func (k LookupKind) String() string {
	switch k {
	case ByHandle:
		return "handle"
	case ByEmail:
		return "email"
	default:
		return "unknown"
	}
}

// LookupKey адрес владельца: username или email, определяется один раз на входе
type LookupKey struct {
	Kind  LookupKind
	Value string
}

var ErrEmptyLookup = errors.New("empty lookup key")

// ParseLookupKey разбирает ввод пользователя: "@ivan", "ivan" или "ivan@gmail.com".
// Username приводится к нижнему регистру без @, email к нижнему регистру.
func ParseLookupKey(raw string) (LookupKey, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "@" {
		return LookupKey{}, ErrEmptyLookup
	}

	if strings.HasPrefix(s, "@") {
		return LookupKey{Kind: ByHandle, Value: strings.ToLower(s[1:])}, nil
	}
	if strings.Contains(s, "@") {
		return LookupKey{Kind: ByEmail, Value: strings.ToLower(s)}, nil
	}
	return LookupKey{Kind: ByHandle, Value: strings.ToLower(s)}, nil
}

// HandleKey ключ по username
func HandleKey(handle string) LookupKey {
	return LookupKey{Kind: ByHandle, Value: strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))}
}

func (k LookupKey) String() string {
	if k.Kind == ByHandle {
		return "@" + k.Value
	}
	return k.Value
}
