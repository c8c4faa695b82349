package model

import "time"

// User зарегистрированная личность: владелец почтового ящика и/или запрашивающий.
// ID совпадает с Telegram user id.
type User struct {
	ID                int64      `db:"id"`
	Username          string     `db:"username"`
	Email             string     `db:"email"`
	EncryptedPassword string     `db:"encrypted_password"`
	Provider          string     `db:"provider"`
	RegisteredAt      time.Time  `db:"registered_at"`
	LastFetchAt       *time.Time `db:"last_fetch_at"`
}

// DisplayName имя для сообщений пользователю
func (u *User) DisplayName() string {
	return "@" + u.Username
}
