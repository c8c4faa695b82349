package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/repository/base"
)

const permissionColumns = `p.id, p.owner_id, p.requester_id, p.status, p.requested_at, p.responded_at`

type PermissionRepository struct {
	*base.Repository
}

func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{Repository: base.NewRepository(db)}
}

// ============ Изменения ============

// Request создаёт pending-запрос или переводит denied обратно в pending одним запросом.
// created=false означает, что запись уже есть в статусе pending или approved;
// тогда возвращается текущая запись (nil, если её успели удалить).
func (r *PermissionRepository) Request(ctx context.Context, ownerID, requesterID int64, at time.Time) (*model.Permission, bool, error) {
	query := `
		INSERT INTO permissions (owner_id, requester_id, status, requested_at)
		VALUES (?, ?, 'pending', ?)
		ON CONFLICT (owner_id, requester_id) DO UPDATE
		SET status = 'pending', requested_at = excluded.requested_at, responded_at = NULL
		WHERE permissions.status = 'denied'
		RETURNING id
	`

	var id int64
	err := r.QueryRow(ctx, query, ownerID, requesterID, at).Scan(&id)
	if err != nil && !base.IsNotFound(err) {
		return nil, false, fmt.Errorf("create permission request: %w", err)
	}

	perm, getErr := r.Get(ctx, ownerID, requesterID)
	if getErr != nil {
		return nil, false, getErr
	}

	return perm, err == nil, nil
}

// Respond переводит pending-запрос в approved/denied.
// Возвращает false, если pending-записи для пары нет.
func (r *PermissionRepository) Respond(ctx context.Context, ownerID, requesterID int64, status model.PermissionStatus, at time.Time) (bool, error) {
	query := `
		UPDATE permissions
		SET status = ?, responded_at = ?
		WHERE owner_id = ? AND requester_id = ? AND status = 'pending'
	`

	n, err := r.ExecAffected(ctx, query, status, at, ownerID, requesterID)
	if err != nil {
		return false, fmt.Errorf("respond permission: %w", err)
	}
	return n > 0, nil
}

// Delete удаляет запись о доступе; false если удалять было нечего
func (r *PermissionRepository) Delete(ctx context.Context, ownerID, requesterID int64) (bool, error) {
	n, err := r.ExecAffected(ctx,
		`DELETE FROM permissions WHERE owner_id = ? AND requester_id = ?`, ownerID, requesterID)
	if err != nil {
		return false, fmt.Errorf("delete permission: %w", err)
	}
	return n > 0, nil
}

// ============ Чтение ============

// Get получает запись о доступе для пары
func (r *PermissionRepository) Get(ctx context.Context, ownerID, requesterID int64) (*model.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions p WHERE p.owner_id = ? AND p.requester_id = ?`

	var perm model.Permission
	found, err := r.Repository.Get(ctx, &perm, query, ownerID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("get permission: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &perm, nil
}

// IsApproved true только для статуса approved
func (r *PermissionRepository) IsApproved(ctx context.Context, ownerID, requesterID int64) (bool, error) {
	query := `
		SELECT COUNT(*) FROM permissions
		WHERE owner_id = ? AND requester_id = ? AND status = 'approved'
	`

	var count int
	if _, err := r.Repository.Get(ctx, &count, query, ownerID, requesterID); err != nil {
		return false, fmt.Errorf("check permission: %w", err)
	}
	return count > 0, nil
}

// ListGiven одобренные доступы, выданные владельцем; peer = requester
func (r *PermissionRepository) ListGiven(ctx context.Context, ownerID int64) ([]*model.PermissionView, error) {
	query := `
		SELECT ` + permissionColumns + `, u.username AS peer_username
		FROM permissions p
		JOIN users u ON u.id = p.requester_id
		WHERE p.owner_id = ? AND p.status = 'approved'
		ORDER BY u.username
	`

	var views []*model.PermissionView
	if err := r.Select(ctx, &views, query, ownerID); err != nil {
		return nil, fmt.Errorf("list given permissions: %w", err)
	}
	return views, nil
}

// ListReceived одобренные доступы, полученные запрашивающим; peer = owner
func (r *PermissionRepository) ListReceived(ctx context.Context, requesterID int64) ([]*model.PermissionView, error) {
	query := `
		SELECT ` + permissionColumns + `, u.username AS peer_username
		FROM permissions p
		JOIN users u ON u.id = p.owner_id
		WHERE p.requester_id = ? AND p.status = 'approved'
		ORDER BY u.username
	`

	var views []*model.PermissionView
	if err := r.Select(ctx, &views, query, requesterID); err != nil {
		return nil, fmt.Errorf("list received permissions: %w", err)
	}
	return views, nil
}

// ListPending pending-запросы к владельцу, новые первыми; peer = requester
func (r *PermissionRepository) ListPending(ctx context.Context, ownerID int64) ([]*model.PermissionView, error) {
	query := `
		SELECT ` + permissionColumns + `, u.username AS peer_username
		FROM permissions p
		JOIN users u ON u.id = p.requester_id
		WHERE p.owner_id = ? AND p.status = 'pending'
		ORDER BY p.requested_at DESC, p.id DESC
	`

	var views []*model.PermissionView
	if err := r.Select(ctx, &views, query, ownerID); err != nil {
		return nil, fmt.Errorf("list pending permissions: %w", err)
	}
	return views, nil
}
