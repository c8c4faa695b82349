package mailbox

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Security режим транспортной защиты IMAP-соединения
type Security string

const (
	SecurityTLS      Security = "tls"
	SecurityStartTLS Security = "starttls"
	SecurityPlain    Security = "plain"
)

// Provider описывает IMAP-сервер почтового провайдера
type Provider struct {
	Name     string   `mapstructure:"name"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Security Security `mapstructure:"security"`
	Domains  []string `mapstructure:"domains"`
}

// Addr возвращает host:port
func (p Provider) Addr() string {
	return p.Host + ":" + strconv.Itoa(p.Port)
}

// Registry статическое отображение тег провайдера -> сервер
type Registry struct {
	byName   map[string]Provider
	byDomain map[string]string
}

// DefaultProviders возвращает встроенный список провайдеров
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name:     "gmail",
			Host:     "imap.gmail.com",
			Port:     993,
			Security: SecurityTLS,
			Domains:  []string{"gmail.com"},
		},
		{
			Name:     "yandex",
			Host:     "imap.yandex.ru",
			Port:     993,
			Security: SecurityTLS,
			Domains:  []string{"yandex.ru", "yandex.com"},
		},
		{
			Name:     "mail.ru",
			Host:     "imap.mail.ru",
			Port:     993,
			Security: SecurityTLS,
			Domains:  []string{"mail.ru", "bk.ru", "inbox.ru", "list.ru"},
		},
		{
			Name:     "outlook",
			Host:     "outlook.office365.com",
			Port:     993,
			Security: SecurityTLS,
			Domains:  []string{"outlook.com", "hotmail.com"},
		},
	}
}

// NewRegistry строит реестр; более поздние записи перекрывают ранние с тем же именем
func NewRegistry(providers []Provider) (*Registry, error) {
	r := &Registry{
		byName:   make(map[string]Provider, len(providers)),
		byDomain: make(map[string]string),
	}

	for _, p := range providers {
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		if p.Name == "" {
			return nil, errors.New("provider name is empty")
		}
		if p.Host == "" {
			return nil, fmt.Errorf("provider %s: host is empty", p.Name)
		}
		if p.Port <= 0 || p.Port > 65535 {
			return nil, fmt.Errorf("provider %s: invalid port %d", p.Name, p.Port)
		}
		if p.Security == "" {
			p.Security = SecurityTLS
		}
		switch p.Security {
		case SecurityTLS, SecurityStartTLS, SecurityPlain:
		default:
			return nil, fmt.Errorf("provider %s: unknown security %q", p.Name, p.Security)
		}

		domains := make([]string, 0, len(p.Domains))
		for _, d := range p.Domains {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
				domains = append(domains, d)
			}
		}
		p.Domains = domains

		if old, ok := r.byName[p.Name]; ok {
			for _, d := range old.Domains {
				if r.byDomain[d] == old.Name {
					delete(r.byDomain, d)
				}
			}
		}
		r.byName[p.Name] = p
		for _, d := range p.Domains {
			r.byDomain[d] = p.Name
		}
	}

	return r, nil
}

// LoadRegistry читает YAML с провайдерами поверх встроенных.
// Пустой путь означает только встроенный список.
//
//	providers:
//	  - name: rambler
//	    host: imap.rambler.ru
//	    port: 993
//	    security: tls
//	    domains: [rambler.ru]
func LoadRegistry(path string) (*Registry, error) {
	providers := DefaultProviders()
	if path == "" {
		return NewRegistry(providers)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("providers file %s not found: %w", path, err)
		}
		return nil, fmt.Errorf("read providers %s: %w", path, err)
	}

	var file struct {
		Providers []Provider `mapstructure:"providers"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("parse providers %s: %w", path, err)
	}

	return NewRegistry(append(providers, file.Providers...))
}

// Lookup возвращает провайдера по тегу
func (r *Registry) Lookup(name string) (Provider, bool) {
	p, ok := r.byName[strings.ToLower(name)]
	return p, ok
}

// Detect определяет провайдера по домену адреса
func (r *Registry) Detect(email string) (Provider, bool) {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return Provider{}, false
	}
	name, ok := r.byDomain[strings.ToLower(email[at+1:])]
	if !ok {
		return Provider{}, false
	}
	return r.Lookup(name)
}

// Domains список поддерживаемых доменов, отсортированный
func (r *Registry) Domains() []string {
	out := make([]string, 0, len(r.byDomain))
	for d := range r.byDomain {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
