package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/clock"
	"github.com/Freeeeeet/coderelay_bot/internal/mailbox"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/ratelimit"
	"github.com/Freeeeeet/coderelay_bot/internal/repository"
	"github.com/Freeeeeet/coderelay_bot/internal/security"
)

type UserService struct {
	userRepo  *repository.UserRepository
	permRepo  *repository.PermissionRepository
	auditRepo *repository.AuditRepository
	providers *mailbox.Registry
	mailbox   Mailbox
	cipher    Cipher
	limiter   *ratelimit.Limiter
	notifier  Notifier
	clock     clock.Clock
	logger    *zap.Logger
}

func NewUserService(
	userRepo *repository.UserRepository,
	permRepo *repository.PermissionRepository,
	auditRepo *repository.AuditRepository,
	providers *mailbox.Registry,
	mailbox Mailbox,
	cipher Cipher,
	limiter *ratelimit.Limiter,
	notifier Notifier,
	clk clock.Clock,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		permRepo:  permRepo,
		auditRepo: auditRepo,
		providers: providers,
		mailbox:   mailbox,
		cipher:    cipher,
		limiter:   limiter,
		notifier:  notifier,
		clock:     clk,
		logger:    logger,
	}
}

// RegisterInput данные регистрации
type RegisterInput struct {
	UserID   int64
	Username string // Telegram username, может быть пустым
	Email    string
	Password string // пароль приложения, пробелы внутри допустимы
}

// ============ Регистрация ============

// ParseCredentials разбирает "email пароль приложения" из одного сообщения
func ParseCredentials(text string) (email, password string, err error) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return "", "", invalidInput("expected email and app password")
	}
	return parts[0], strings.Join(parts[1:], " "), nil
}

// Register проверяет данные, подключается к ящику и сохраняет пользователя с зашифрованным паролем
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := allow(s.limiter, in.UserID, ratelimit.ActionRegister); err != nil {
		return nil, err
	}

	username := strings.ToLower(security.NormalizeHandle(in.Username))
	if username == "" {
		username = fmt.Sprintf("user_%d", in.UserID)
	}
	if !security.ValidateHandle(username) {
		return nil, invalidInput("username %q", username)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !security.ValidateEmail(email) {
		return nil, invalidInput("email")
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, invalidInput("empty password")
	}

	provider, ok := s.providers.Detect(email)
	if !ok {
		return nil, ErrUnsupportedProvider
	}

	if err := s.ensureFree(ctx, in.UserID, username, email); err != nil {
		return nil, err
	}

	creds := mailbox.Credentials{Email: email, Password: in.Password, Provider: provider.Name}
	if err := s.mailbox.Check(ctx, creds); err != nil {
		s.logger.Info("Registration mailbox check failed",
			zap.Int64("user_id", in.UserID),
			zap.String("provider", provider.Name),
			zap.Error(err),
		)
		return nil, mapMailboxError(err)
	}

	encrypted, err := s.cipher.Encrypt(in.Password)
	if err != nil {
		return nil, fmt.Errorf("encrypt password: %w", err)
	}

	now := s.clock.Now().UTC()
	user := &model.User{
		ID:                in.UserID,
		Username:          username,
		Email:             email,
		EncryptedPassword: encrypted,
		Provider:          provider.Name,
		RegisteredAt:      now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	audit(ctx, s.auditRepo, s.logger, &model.AuditEntry{
		SubjectID: user.ID,
		Action:    model.AuditRegistration,
		Detail:    "provider=" + provider.Name,
		At:        now,
	})

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("provider", user.Provider),
	)

	return user, nil
}

// ensureFree проверяет, что id, username и email ещё не заняты
func (s *UserService) ensureFree(ctx context.Context, id int64, username, email string) error {
	existing, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return ErrAlreadyExists
	}

	byName, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if byName != nil {
		return fmt.Errorf("username taken: %w", ErrAlreadyExists)
	}

	byEmail, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if byEmail != nil {
		return fmt.Errorf("email taken: %w", ErrAlreadyExists)
	}

	return nil
}

// ============ Удаление ============

// Unregister удаляет пользователя и все его доступы.
// Возвращает снимок одобренных доступов до удаления; вторые стороны получают уведомления.
func (s *UserService) Unregister(ctx context.Context, userID int64) (*model.Delegations, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotRegistered
	}

	given, err := s.permRepo.ListGiven(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.permRepo.ListReceived(ctx, userID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrNotRegistered
	}

	now := s.clock.Now().UTC()
	audit(ctx, s.auditRepo, s.logger, &model.AuditEntry{
		SubjectID: userID,
		Action:    model.AuditUnregistration,
		Detail:    fmt.Sprintf("given=%d received=%d", len(given), len(received)),
		At:        now,
	})

	for _, p := range given {
		notify(ctx, s.notifier, s.logger, Event{
			Kind:        EventOwnerUnregistered,
			RecipientID: p.RequesterID,
			PeerID:      userID,
			PeerName:    user.Username,
			At:          now,
		})
	}
	for _, p := range received {
		notify(ctx, s.notifier, s.logger, Event{
			Kind:        EventRequesterUnregistered,
			RecipientID: p.OwnerID,
			PeerID:      userID,
			PeerName:    user.Username,
			At:          now,
		})
	}

	s.logger.Info("User unregistered",
		zap.Int64("user_id", userID),
		zap.Int("given", len(given)),
		zap.Int("received", len(received)),
	)

	return &model.Delegations{Given: given, Received: received}, nil
}

// ============ Поиск ============

// GetByID получает пользователя по Telegram ID; nil если не зарегистрирован
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Resolve находит пользователя по username или email
func (s *UserService) Resolve(ctx context.Context, key model.LookupKey) (*model.User, error) {
	user, err := s.userRepo.GetByLookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", key, ErrNotFound)
	}
	return user, nil
}

// SupportedDomains домены, для которых известен IMAP-сервер
func (s *UserService) SupportedDomains() []string {
	return s.providers.Domains()
}

// mapMailboxError сводит ошибки ящика к ошибкам сервиса
func mapMailboxError(err error) error {
	switch {
	case errors.Is(err, mailbox.ErrUnknownProvider):
		return fmt.Errorf("%w: %w", ErrUnsupportedProvider, err)
	case errors.Is(err, mailbox.ErrConnectionFailed):
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	default:
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
}
