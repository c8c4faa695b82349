package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

const inbox = "INBOX"

// Dialer открывает аутентифицированную сессию с почтовым ящиком
type Dialer interface {
	Dial(ctx context.Context, provider Provider, username, password string) (Session, error)
}

// Session одна IMAP-сессия; не переиспользуется между запросами
type Session interface {
	// SelectInbox открывает INBOX только на чтение (EXAMINE)
	SelectInbox() error
	// FetchRecent возвращает до limit последних писем, новые первыми
	FetchRecent(limit int, withBody bool) ([]Message, error)
	Close() error
}

// IMAPDialer реализация Dialer поверх go-imap v2
type IMAPDialer struct {
	ConnectTimeout time.Duration
	SessionTimeout time.Duration
	// TLSConfig переопределяет настройки TLS (тесты, самоподписанные сертификаты)
	TLSConfig *tls.Config
}

// NewIMAPDialer создаёт IMAP-дайлер с таймаутами
func NewIMAPDialer(connectTimeout, sessionTimeout time.Duration) *IMAPDialer {
	return &IMAPDialer{
		ConnectTimeout: connectTimeout,
		SessionTimeout: sessionTimeout,
	}
}

// Dial подключается к провайдеру и выполняет LOGIN.
// Дедлайн SessionTimeout ставится на сокет целиком.
func (d *IMAPDialer) Dial(ctx context.Context, provider Provider, username, password string) (Session, error) {
	netDialer := &net.Dialer{Timeout: d.ConnectTimeout}
	conn, err := netDialer.DialContext(ctx, "tcp", provider.Addr())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", provider.Addr(), err)
	}

	if d.SessionTimeout > 0 {
		deadline := time.Now().Add(d.SessionTimeout)
		if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	opts := &imapclient.Options{TLSConfig: d.tlsConfig(provider.Host)}

	var client *imapclient.Client
	switch provider.Security {
	case SecurityStartTLS:
		client, err = imapclient.NewStartTLS(conn, opts)
		if err != nil {
			stop()
			_ = conn.Close()
			return nil, fmt.Errorf("starttls %s: %w", provider.Addr(), err)
		}
	case SecurityPlain:
		client = imapclient.New(conn, opts)
	default:
		tlsConn := tls.Client(conn, opts.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			stop()
			_ = conn.Close()
			return nil, fmt.Errorf("tls handshake %s: %w", provider.Addr(), err)
		}
		client = imapclient.New(tlsConn, opts)
	}

	if err := client.Login(username, password).Wait(); err != nil {
		stop()
		_ = client.Close()
		return nil, fmt.Errorf("login: %w", err)
	}

	return &imapSession{client: client, stop: stop}, nil
}

func (d *IMAPDialer) tlsConfig(host string) *tls.Config {
	if d.TLSConfig != nil {
		cfg := d.TLSConfig.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = host
		}
		return cfg
	}
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}

type imapSession struct {
	client *imapclient.Client
	stop   func() bool
}

func (s *imapSession) SelectInbox() error {
	if _, err := s.client.Select(inbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return fmt.Errorf("examine %s: %w", inbox, err)
	}
	return nil
}

func (s *imapSession) FetchRecent(limit int, withBody bool) ([]Message, error) {
	data, err := s.client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}

	uids := data.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	// BODY.PEEK не выставляет \Seen
	section := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierHeader, Peek: true}
	if withBody {
		section = &imap.FetchItemBodySection{Peek: true}
	}

	buffers, err := s.client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{section},
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	messages := make([]Message, 0, len(buffers))
	for _, buf := range buffers {
		messages = append(messages, messageFromBuffer(buf, section))
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].UID > messages[j].UID })
	return messages, nil
}

func (s *imapSession) Close() error {
	s.stop()
	logoutErr := s.client.Logout().Wait()
	closeErr := s.client.Close()
	if logoutErr != nil {
		return fmt.Errorf("logout: %w", logoutErr)
	}
	return closeErr
}

// messageFromBuffer собирает письмо из заголовка, конверт используется как запасной источник
func messageFromBuffer(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) Message {
	var msg Message
	if raw := buf.FindBodySection(section); raw != nil {
		if parsed, err := parseMessage(raw); err == nil {
			msg = parsed
		}
	}
	msg.UID = uint32(buf.UID)

	if env := buf.Envelope; env != nil {
		if msg.Subject == "" {
			msg.Subject = env.Subject
		}
		if msg.Date.IsZero() {
			msg.Date = env.Date
		}
		if msg.From == "" && len(env.From) > 0 {
			msg.From = env.From[0].Addr()
		}
	}

	return msg
}
