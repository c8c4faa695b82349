package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/clock"
)

var (
	// ErrConnectionFailed объединяет сетевые ошибки, неверный пароль и выключенный IMAP
	ErrConnectionFailed = errors.New("mailbox connection failed")
	ErrUnknownProvider  = errors.New("unknown mail provider")
)

// Credentials данные для входа в ящик владельца (пароль уже расшифрован)
type Credentials struct {
	Email    string
	Password string
	Provider string
}

// Options параметры получения кода
type Options struct {
	MaxMessages int
	MaxAge      time.Duration
	ScanBody    bool
}

// DefaultOptions последние 10 писем, коды не старше 10 минут, только тема
func DefaultOptions() Options {
	return Options{
		MaxMessages: 10,
		MaxAge:      10 * time.Minute,
		ScanBody:    false,
	}
}

// Retriever достаёт самый свежий код из почтового ящика
type Retriever struct {
	dialer    Dialer
	providers *Registry
	clock     clock.Clock
	opts      Options
	logger    *zap.Logger
}

// NewRetriever создаёт новый Retriever
func NewRetriever(dialer Dialer, providers *Registry, clk clock.Clock, opts Options, logger *zap.Logger) *Retriever {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = DefaultOptions().MaxMessages
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultOptions().MaxAge
	}
	return &Retriever{
		dialer:    dialer,
		providers: providers,
		clock:     clk,
		opts:      opts,
		logger:    logger,
	}
}

// Providers реестр провайдеров, с которым работает Retriever
func (r *Retriever) Providers() *Registry {
	return r.providers
}

// LatestCode возвращает первый код из самого нового свежего письма, в теме которого он есть.
// found=false без ошибки означает, что ящик доступен, но подходящего кода нет.
func (r *Retriever) LatestCode(ctx context.Context, creds Credentials) (code string, found bool, err error) {
	session, err := r.open(ctx, creds)
	if err != nil {
		return "", false, err
	}
	defer r.closeSession(session, creds.Provider)

	messages, err := session.FetchRecent(r.opts.MaxMessages, r.opts.ScanBody)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	code, found = SelectCode(messages, r.clock.Now(), r.opts.MaxAge, r.opts.ScanBody)

	r.logger.Debug("Mailbox scanned",
		zap.String("provider", creds.Provider),
		zap.Int("messages", len(messages)),
		zap.Bool("found", found),
	)

	return code, found, nil
}

// Check проверяет, что можно войти в ящик и открыть INBOX
func (r *Retriever) Check(ctx context.Context, creds Credentials) error {
	session, err := r.open(ctx, creds)
	if err != nil {
		return err
	}
	r.closeSession(session, creds.Provider)
	return nil
}

func (r *Retriever) open(ctx context.Context, creds Credentials) (Session, error) {
	provider, ok := r.providers.Lookup(creds.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, creds.Provider)
	}

	session, err := r.dialer.Dial(ctx, provider, creds.Email, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := session.SelectInbox(); err != nil {
		r.closeSession(session, creds.Provider)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return session, nil
}

func (r *Retriever) closeSession(session Session, provider string) {
	if err := session.Close(); err != nil {
		r.logger.Debug("Failed to close mailbox session",
			zap.String("provider", provider),
			zap.Error(err),
		)
	}
}

// SelectCode применяет правило "побеждает самое новое письмо".
// messages должны идти от новых к старым.
func SelectCode(messages []Message, now time.Time, maxAge time.Duration, scanBody bool) (string, bool) {
	for _, msg := range messages {
		if !IsFresh(msg.Date, now, maxAge) {
			continue
		}

		codes := ExtractCodes(msg.Subject)
		if len(codes) == 0 && scanBody {
			codes = ExtractCodes(msg.Body)
		}
		if len(codes) > 0 {
			return codes[0], true
		}
	}
	return "", false
}
