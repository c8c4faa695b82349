package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/clock"
	"github.com/Freeeeeet/coderelay_bot/internal/mailbox"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/ratelimit"
	"github.com/Freeeeeet/coderelay_bot/internal/repository"
)

// CodeService получает одноразовые коды из ящика владельца по поручению запрашивающего
type CodeService struct {
	userRepo    *repository.UserRepository
	auditRepo   *repository.AuditRepository
	delegations *DelegationService
	mailbox     Mailbox
	cipher      Cipher
	limiter     *ratelimit.Limiter
	notifier    Notifier
	clock       clock.Clock
	logger      *zap.Logger
}

func NewCodeService(
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditRepository,
	delegations *DelegationService,
	mailbox Mailbox,
	cipher Cipher,
	limiter *ratelimit.Limiter,
	notifier Notifier,
	clk clock.Clock,
	logger *zap.Logger,
) *CodeService {
	return &CodeService{
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		delegations: delegations,
		mailbox:     mailbox,
		cipher:      cipher,
		limiter:     limiter,
		notifier:    notifier,
		clock:       clk,
		logger:      logger,
	}
}

// CodeResult результат попытки. Found=false без ошибки: ящик доступен, свежего кода нет.
type CodeResult struct {
	Owner *model.User
	Code  string
	Found bool
	// FetchID идентификатор попытки в логах и журнале
	FetchID string
}

// ============ Получение кода ============

// FetchCode получает код владельца для запрашивающего.
// Порядок: сам себе -> владелец -> доступ -> лимит -> расшифровка -> ящик.
func (s *CodeService) FetchCode(ctx context.Context, requesterID int64, ownerKey model.LookupKey) (*CodeResult, error) {
	fetchID := uuid.NewString()
	log := s.logger.With(zap.String("fetch_id", fetchID), zap.Int64("requester_id", requesterID))

	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("get requester: %w", err)
	}
	if requester == nil {
		return nil, ErrNotRegistered
	}
	if refersTo(requester, ownerKey) {
		return nil, ErrSelfReference
	}

	owner, err := s.userRepo.GetByLookup(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	if owner == nil {
		log.Info("Code fetch: owner not found", zap.String("kind", ownerKey.Kind.String()))
		return nil, fmt.Errorf("owner %s: %w", ownerKey, ErrNotFound)
	}
	if owner.ID == requesterID {
		return nil, ErrSelfReference
	}
	log = log.With(zap.Int64("owner_id", owner.ID))

	approved, err := s.delegations.Check(ctx, owner.ID, requesterID)
	if err != nil {
		return nil, err
	}
	if !approved {
		log.Info("Code fetch: no approved delegation")
		return nil, ErrForbidden
	}

	if err := allow(s.limiter, requesterID, ratelimit.ActionGetCode); err != nil {
		log.Info("Code fetch: rate limited")
		return nil, err
	}

	code, found, err := s.retrieve(ctx, log, owner)
	if err != nil {
		s.auditFetch(ctx, requesterID, model.AuditCodeFetchFailed, owner.ID, fetchID)
		return nil, err
	}

	now := s.clock.Now().UTC()
	if !found {
		log.Info("Code fetch: no fresh code")
		s.auditFetch(ctx, requesterID, model.AuditCodeNotFound, owner.ID, fetchID)
		return &CodeResult{Owner: owner, FetchID: fetchID}, nil
	}

	if err := s.userRepo.TouchLastFetch(ctx, owner.ID, now); err != nil {
		log.Warn("Failed to update last fetch time", zap.Error(err))
	}
	s.auditFetch(ctx, requesterID, model.AuditCodeRetrieved, owner.ID, fetchID)

	log.Info("Code fetched")

	notify(ctx, s.notifier, s.logger, Event{
		Kind:        EventCodeFetched,
		RecipientID: owner.ID,
		PeerID:      requester.ID,
		PeerName:    requester.Username,
		At:          now,
	})

	return &CodeResult{Owner: owner, Code: code, Found: true, FetchID: fetchID}, nil
}

// TestOwnCode владелец получает код из своего ящика; без уведомлений
func (s *CodeService) TestOwnCode(ctx context.Context, userID int64) (*CodeResult, error) {
	user, err := s.registered(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := allow(s.limiter, userID, ratelimit.ActionMyCode); err != nil {
		return nil, err
	}

	fetchID := uuid.NewString()
	log := s.logger.With(zap.String("fetch_id", fetchID), zap.Int64("owner_id", userID))

	code, found, err := s.retrieve(ctx, log, user)
	if err != nil {
		return nil, err
	}
	log.Info("Own code test", zap.Bool("found", found))

	return &CodeResult{Owner: user, Code: code, Found: found, FetchID: fetchID}, nil
}

// CheckMailbox проверяет, что сохранённый пароль всё ещё подходит
func (s *CodeService) CheckMailbox(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.registered(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := allow(s.limiter, userID, ratelimit.ActionCheckEmail); err != nil {
		return nil, err
	}

	creds, err := s.credentials(user)
	if err != nil {
		return nil, err
	}
	if err := s.mailbox.Check(ctx, creds); err != nil {
		s.logger.Info("Mailbox check failed",
			zap.Int64("user_id", userID),
			zap.String("provider", user.Provider),
			zap.Error(err),
		)
		return user, mapMailboxError(err)
	}
	return user, nil
}

// ============ Вспомогательные ============

func (s *CodeService) registered(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotRegistered
	}
	return user, nil
}

// retrieve расшифровывает пароль владельца и идёт в ящик
func (s *CodeService) retrieve(ctx context.Context, log *zap.Logger, owner *model.User) (string, bool, error) {
	creds, err := s.credentials(owner)
	if err != nil {
		log.Error("Stored credential cannot be decrypted", zap.Error(err))
		return "", false, err
	}

	code, found, err := s.mailbox.LatestCode(ctx, creds)
	if err != nil {
		log.Warn("Mailbox fetch failed", zap.String("provider", owner.Provider), zap.Error(err))
		return "", false, mapMailboxError(err)
	}
	return code, found, nil
}

func (s *CodeService) credentials(user *model.User) (mailbox.Credentials, error) {
	password, err := s.cipher.Decrypt(user.EncryptedPassword)
	if err != nil {
		return mailbox.Credentials{}, fmt.Errorf("%w: %w", ErrCredential, err)
	}
	return mailbox.Credentials{Email: user.Email, Password: password, Provider: user.Provider}, nil
}

func (s *CodeService) auditFetch(ctx context.Context, requesterID int64, action model.AuditAction, ownerID int64, fetchID string) {
	audit(ctx, s.auditRepo, s.logger, &model.AuditEntry{
		SubjectID: requesterID,
		Action:    action,
		Detail:    fmt.Sprintf("owner_id=%d fetch_id=%s", ownerID, fetchID),
		At:        s.clock.Now().UTC(),
	})
}

// refersTo ключ указывает на самого пользователя
func refersTo(user *model.User, key model.LookupKey) bool {
	switch key.Kind {
	case model.ByHandle:
		return key.Value == user.Username
	case model.ByEmail:
		return key.Value == user.Email
	}
	return false
}

// IsUserFacing ошибка из таксономии сервиса, её можно показать пользователю без деталей
func IsUserFacing(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrNotRegistered, ErrForbidden, ErrAlreadyRequested, ErrAlreadyExists,
		ErrSelfReference, ErrCredential, ErrConnectionFailed, ErrInvalidInput,
		ErrUnsupportedProvider, ErrRateLimited,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
