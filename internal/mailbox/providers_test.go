package mailbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDetect(t *testing.T) {
	r, err := NewRegistry(DefaultProviders())
	require.NoError(t, err)

	tests := map[string]string{
		"ivan@gmail.com":   "gmail",
		"ivan@yandex.ru":   "yandex",
		"ivan@yandex.com":  "yandex",
		"ivan@bk.ru":       "mail.ru",
		"ivan@list.ru":     "mail.ru",
		"ivan@Hotmail.com": "outlook",
		"ivan@outlook.com": "outlook",
	}
	for email, want := range tests {
		p, ok := r.Detect(email)
		require.True(t, ok, email)
		assert.Equal(t, want, p.Name, email)
	}

	_, ok := r.Detect("ivan@example.org")
	assert.False(t, ok)
	_, ok = r.Detect("not-an-email")
	assert.False(t, ok)
}

func TestRegistryLookup(t *testing.T) {
	r, err := NewRegistry(DefaultProviders())
	require.NoError(t, err)

	p, ok := r.Lookup("gmail")
	require.True(t, ok)
	assert.Equal(t, "imap.gmail.com:993", p.Addr())
	assert.Equal(t, SecurityTLS, p.Security)
}

func TestNewRegistryRejectsInvalid(t *testing.T) {
	_, err := NewRegistry([]Provider{{Name: "x", Port: 993}})
	assert.Error(t, err)

	_, err = NewRegistry([]Provider{{Name: "x", Host: "h", Port: 0}})
	assert.Error(t, err)

	_, err = NewRegistry([]Provider{{Name: "x", Host: "h", Port: 1, Security: "ssl3"}})
	assert.Error(t, err)
}

func TestLoadRegistryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `providers:
  - name: rambler
    host: imap.rambler.ru
    port: 993
    security: tls
    domains: [rambler.ru, ro.ru]
  - name: yandex
    host: imap.yandex.com
    port: 993
    domains: [yandex.ru]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := LoadRegistry(path)
	require.NoError(t, err)

	p, ok := r.Detect("petr@ro.ru")
	require.True(t, ok)
	assert.Equal(t, "rambler", p.Name)

	p, ok = r.Lookup("yandex")
	require.True(t, ok)
	assert.Equal(t, "imap.yandex.com", p.Host)
	assert.Equal(t, SecurityTLS, p.Security)

	// домен yandex.com ушёл вместе со старой записью
	_, ok = r.Detect("petr@yandex.com")
	assert.False(t, ok)

	_, ok = r.Lookup("gmail")
	assert.True(t, ok)
}

func TestLoadRegistryDefaultsAndMissingFile(t *testing.T) {
	r, err := LoadRegistry("")
	require.NoError(t, err)
	assert.Contains(t, r.Domains(), "gmail.com")

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
