package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/clock"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/ratelimit"
	"github.com/Freeeeeet/coderelay_bot/internal/repository"
)

// DelegationService машина состояний доступа: NONE -> PENDING -> APPROVED/DENIED
type DelegationService struct {
	permRepo  *repository.PermissionRepository
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditRepository
	limiter   *ratelimit.Limiter
	notifier  Notifier
	clock     clock.Clock
	logger    *zap.Logger
}

func NewDelegationService(
	permRepo *repository.PermissionRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditRepository,
	limiter *ratelimit.Limiter,
	notifier Notifier,
	clk clock.Clock,
	logger *zap.Logger,
) *DelegationService {
	return &DelegationService{
		permRepo:  permRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		limiter:   limiter,
		notifier:  notifier,
		clock:     clk,
		logger:    logger,
	}
}

// ============ Запрос доступа ============

// RequestAccess запрос доступа к кодам владельца, найденного по ключу.
// Возвращает владельца, чтобы показать его username.
func (s *DelegationService) RequestAccess(ctx context.Context, requesterID int64, ownerKey model.LookupKey) (*model.User, error) {
	if err := allow(s.limiter, requesterID, ratelimit.ActionRequestAccess); err != nil {
		return nil, err
	}

	owner, err := s.userRepo.GetByLookup(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("owner %s: %w", ownerKey, ErrNotFound)
	}

	if _, err := s.Request(ctx, owner.ID, requesterID); err != nil {
		return owner, err
	}
	return owner, nil
}

// Request создаёт pending-запрос (или возвращает denied в pending) и уведомляет владельца.
// Повторный запрос при pending даёт ErrAlreadyRequested, при approved ErrAlreadyExists.
func (s *DelegationService) Request(ctx context.Context, ownerID, requesterID int64) (*model.Permission, error) {
	if ownerID == requesterID {
		return nil, ErrSelfReference
	}

	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("get requester: %w", err)
	}
	if requester == nil {
		return nil, ErrNotRegistered
	}

	ownerExists, err := s.userRepo.Exists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check owner: %w", err)
	}
	if !ownerExists {
		return nil, fmt.Errorf("owner %d: %w", ownerID, ErrNotFound)
	}

	now := s.clock.Now().UTC()
	perm, created, err := s.permRepo.Request(ctx, ownerID, requesterID, now)
	if err != nil {
		return nil, err
	}

	if !created {
		if perm == nil {
			// запись удалили между INSERT и SELECT; пробуем ещё раз
			perm, created, err = s.permRepo.Request(ctx, ownerID, requesterID, now)
			if err != nil {
				return nil, err
			}
		}
		if !created {
			return perm, existingPermissionError(perm)
		}
	}

	audit(ctx, s.auditRepo, s.logger, &model.AuditEntry{
		SubjectID: requesterID,
		Action:    model.AuditPermissionRequest,
		Detail:    fmt.Sprintf("owner_id=%d", ownerID),
		At:        now,
	})

	s.logger.Info("Access requested",
		zap.Int64("owner_id", ownerID),
		zap.Int64("requester_id", requesterID),
	)

	notify(ctx, s.notifier, s.logger, Event{
		Kind:        EventAccessRequested,
		RecipientID: ownerID,
		PeerID:      requesterID,
		PeerName:    requester.Username,
		PeerEmail:   requester.Email,
		At:          now,
	})

	return perm, nil
}

func existingPermissionError(perm *model.Permission) error {
	if perm == nil {
		return fmt.Errorf("permission changed concurrently")
	}
	switch perm.Status {
	case model.PermissionApproved:
		return ErrAlreadyExists
	default:
		return ErrAlreadyRequested
	}
}

// ============ Ответ владельца ============

// Respond одобряет или отклоняет pending-запрос.
// Нет pending-записи: ErrNotFound. Повтор того же решения ничего не меняет и не считается ошибкой.
func (s *DelegationService) Respond(ctx context.Context, ownerID, requesterID int64, decision model.Decision) (*model.Permission, error) {
	now := s.clock.Now().UTC()
	status := decision.Status()

	updated, err := s.permRepo.Respond(ctx, ownerID, requesterID, status, now)
	if err != nil {
		return nil, err
	}

	perm, err := s.permRepo.Get(ctx, ownerID, requesterID)
	if err != nil {
		return nil, err
	}

	if !updated {
		if perm != nil && perm.Status == status {
			return perm, nil
		}
		return nil, fmt.Errorf("pending request %d->%d: %w", requesterID, ownerID, ErrNotFound)
	}

	audit(ctx, s.auditRepo, s.logger, &model.AuditEntry{
		SubjectID: ownerID,
		Action:    model.AuditPermissionResponse,
		Detail:    fmt.Sprintf("requester_id=%d status=%s", requesterID, status),
		At:        now,
	})

	s.logger.Info("Access request answered",
		zap.Int64("owner_id", ownerID),
		zap.Int64("requester_id", requesterID),
		zap.String("status", string(status)),
	)

	kind := EventAccessDenied
	if decision == model.Approve {
		kind = EventAccessApproved
	}
	s.notifyPeer(ctx, kind, requesterID, ownerID, now)

	return perm, nil
}

// ============ Проверка и отзыв ============

// Check true только при approved. Чистое чтение, вызывается на каждую попытку получить код.
func (s *DelegationService) Check(ctx context.Context, ownerID, requesterID int64) (bool, error) {
	return s.permRepo.IsApproved(ctx, ownerID, requesterID)
}

// Revoke удаляет запись о доступе в любом статусе.
// deleted=false, если удалять было нечего; это не ошибка.
func (s *DelegationService) Revoke(ctx context.Context, ownerID, requesterID int64) (bool, error) {
	deleted, err := s.permRepo.Delete(ctx, ownerID, requesterID)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	now := s.clock.Now().UTC()
	audit(ctx, s.auditRepo, s.logger, &model.AuditEntry{
		SubjectID: ownerID,
		Action:    model.AuditPermissionRevoked,
		Detail:    fmt.Sprintf("requester_id=%d", requesterID),
		At:        now,
	})

	s.logger.Info("Access revoked",
		zap.Int64("owner_id", ownerID),
		zap.Int64("requester_id", requesterID),
	)

	s.notifyPeer(ctx, EventAccessRevoked, requesterID, ownerID, now)
	return true, nil
}

// RevokeByKey отзывает доступ у пользователя, найденного по ключу
func (s *DelegationService) RevokeByKey(ctx context.Context, ownerID int64, requesterKey model.LookupKey) (*model.User, bool, error) {
	requester, err := s.userRepo.GetByLookup(ctx, requesterKey)
	if err != nil {
		return nil, false, fmt.Errorf("resolve requester: %w", err)
	}
	if requester == nil {
		return nil, false, fmt.Errorf("requester %s: %w", requesterKey, ErrNotFound)
	}

	deleted, err := s.Revoke(ctx, ownerID, requester.ID)
	return requester, deleted, err
}

// ============ Списки ============

// List одобренные доступы: выданные пользователем и полученные им
func (s *DelegationService) List(ctx context.Context, userID int64) (*model.Delegations, error) {
	given, err := s.permRepo.ListGiven(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.permRepo.ListReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.Delegations{Given: given, Received: received}, nil
}

// Pending запросы, ожидающие ответа владельца
func (s *DelegationService) Pending(ctx context.Context, ownerID int64) ([]*model.PermissionView, error) {
	return s.permRepo.ListPending(ctx, ownerID)
}

// notifyPeer уведомляет recipient о действии actor
func (s *DelegationService) notifyPeer(ctx context.Context, kind EventKind, recipientID, actorID int64, at time.Time) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil || actor == nil {
		s.logger.Warn("Skip notification: actor not loaded", zap.Int64("actor_id", actorID), zap.Error(err))
		return
	}

	notify(ctx, s.notifier, s.logger, Event{
		Kind:        kind,
		RecipientID: recipientID,
		PeerID:      actorID,
		PeerName:    actor.Username,
		At:          at,
	})
}
