package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/repository/base"
)

// ErrDuplicate username, email или id уже заняты
var ErrDuplicate = errors.New("duplicate record")

const userColumns = `id, username, email, encrypted_password, provider, registered_at, last_fetch_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(db)}
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, email, encrypted_password, provider, registered_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.ExecAffected(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.EncryptedPassword,
		user.Provider,
		user.RegisteredAt,
	)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, "get user by id", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername получает пользователя по username (без @, в нижнем регистре)
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, "get user by username", `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetByEmail получает пользователя по email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByLookup получает пользователя по ключу поиска
func (r *UserRepository) GetByLookup(ctx context.Context, key model.LookupKey) (*model.User, error) {
	switch key.Kind {
	case model.ByHandle:
		return r.GetByUsername(ctx, key.Value)
	case model.ByEmail:
		return r.GetByEmail(ctx, key.Value)
	default:
		return nil, fmt.Errorf("unknown lookup kind %d", key.Kind)
	}
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, arg interface{}) (*model.User, error) {
	var user model.User
	found, err := r.Get(ctx, &user, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, nil // Пользователь не найден
	}
	return &user, nil
}

// Exists проверяет существование пользователя
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int
	if _, err := r.Get(ctx, &count, `SELECT COUNT(*) FROM users WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return count > 0, nil
}

// TouchLastFetch обновляет время последнего успешного получения кода
func (r *UserRepository) TouchLastFetch(ctx context.Context, id int64, at time.Time) error {
	_, err := r.ExecAffected(ctx, `UPDATE users SET last_fetch_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("update last fetch: %w", err)
	}
	return nil
}

// Delete удаляет пользователя и все доступы, где он владелец или запрашивающий.
// Журнал действий не трогается.
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool

	err := r.InTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			tx.Rebind(`DELETE FROM permissions WHERE owner_id = ? OR requester_id = ?`), id, id)
		if err != nil {
			return fmt.Errorf("delete user permissions: %w", err)
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		deleted = n > 0
		return nil
	})

	return deleted, err
}
