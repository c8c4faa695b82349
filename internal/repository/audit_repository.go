package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/repository/base"
)

type AuditRepository struct {
	*base.Repository
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{Repository: base.NewRepository(db)}
}

// Append добавляет запись в журнал действий
func (r *AuditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	query := `
		INSERT INTO audit_log (subject_id, action, detail, at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.ExecAffected(ctx, query, entry.SubjectID, entry.Action, entry.Detail, entry.At)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListBySubject последние записи пользователя, новые первыми
func (r *AuditRepository) ListBySubject(ctx context.Context, subjectID int64, limit int) ([]*model.AuditEntry, error) {
	query := `
		SELECT id, subject_id, action, detail, at
		FROM audit_log
		WHERE subject_id = ?
		ORDER BY at DESC, id DESC
		LIMIT ?
	`

	var entries []*model.AuditEntry
	if err := r.Select(ctx, &entries, query, subjectID, limit); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
