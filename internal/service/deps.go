package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/mailbox"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/ratelimit"
)

// Cipher шифрование паролей приложений (реализует vault.Vault)
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Mailbox получение кода из почтового ящика (реализует mailbox.Retriever)
type Mailbox interface {
	LatestCode(ctx context.Context, creds mailbox.Credentials) (string, bool, error)
	Check(ctx context.Context, creds mailbox.Credentials) error
}

// ============ Уведомления ============

// EventKind тип уведомления
type EventKind int

const (
	// EventAccessRequested владельцу: кто-то просит доступ (с кнопками ответа)
	EventAccessRequested EventKind = iota + 1
	// EventAccessApproved запрашивающему: доступ выдан
	EventAccessApproved
	// EventAccessDenied запрашивающему: доступ отклонён
	EventAccessDenied
	// EventAccessRevoked запрашивающему: доступ отозван
	EventAccessRevoked
	// EventCodeFetched владельцу: его код получили
	EventCodeFetched
	// EventOwnerUnregistered запрашивающему: владелец удалил данные, доступ потерян
	EventOwnerUnregistered
	// EventRequesterUnregistered владельцу: запрашивающий удалил данные, доступ снят
	EventRequesterUnregistered
)

// Event уведомление для пользователя RecipientID о действии пользователя Peer
type Event struct {
	Kind        EventKind
	RecipientID int64
	PeerID      int64
	PeerName    string
	PeerEmail   string
	At          time.Time
}

// Notifier канал уведомлений; ошибки только логируются
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// notify отправляет уведомление и глотает ошибку
func notify(ctx context.Context, n Notifier, logger *zap.Logger, event Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, event); err != nil {
		logger.Warn("Failed to deliver notification",
			zap.Int("kind", int(event.Kind)),
			zap.Int64("recipient_id", event.RecipientID),
			zap.Error(err),
		)
	}
}

// ============ Журнал ============

type auditAppender interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
}

// audit пишет запись журнала; сбой записи не отменяет уже выполненное действие
func audit(ctx context.Context, repo auditAppender, logger *zap.Logger, entry *model.AuditEntry) {
	if err := repo.Append(ctx, entry); err != nil {
		logger.Error("Failed to append audit entry",
			zap.Int64("subject_id", entry.SubjectID),
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
	}
}

// ============ Лимиты ============

func allow(limiter *ratelimit.Limiter, subject int64, action ratelimit.Action) error {
	ok, remaining := limiter.AllowAction(subject, action)
	if !ok {
		return &RateLimitError{Action: action, RetryAfter: remaining}
	}
	return nil
}
