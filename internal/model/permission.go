package model

import "time"

// PermissionStatus состояние делегирования
type PermissionStatus string

const (
	PermissionPending  PermissionStatus = "pending"
	PermissionApproved PermissionStatus = "approved"
	PermissionDenied   PermissionStatus = "denied"
)

// Valid проверяет, что статус из допустимого набора
func (s PermissionStatus) Valid() bool {
	switch s {
	case PermissionPending, PermissionApproved, PermissionDenied:
		return true
	}
	return false
}

// Decision ответ владельца на запрос доступа
type Decision bool

const (
	Approve Decision = true
	Deny    Decision = false
)

// Status статус, в который переводит решение
func (d Decision) Status() PermissionStatus {
	if d {
		return PermissionApproved
	}
	return PermissionDenied
}

// Permission запись о доступе requester к кодам owner.
// На пару (owner, requester) существует не больше одной записи.
type Permission struct {
	ID          int64            `db:"id"`
	OwnerID     int64            `db:"owner_id"`
	RequesterID int64            `db:"requester_id"`
	Status      PermissionStatus `db:"status"`
	RequestedAt time.Time        `db:"requested_at"`
	RespondedAt *time.Time       `db:"responded_at"`
}

// IsPending запрос ждёт ответа владельца
func (p *Permission) IsPending() bool {
	return p.Status == PermissionPending
}

// IsApproved доступ выдан
func (p *Permission) IsApproved() bool {
	return p.Status == PermissionApproved
}

// PermissionView запись о доступе с username второй стороны
type PermissionView struct {
	Permission
	PeerUsername string `db:"peer_username"`
}

// Delegations одобренные доступы пользователя
type Delegations struct {
	// Given кому пользователь выдал доступ к своим кодам (он owner)
	Given []*PermissionView
	// Received к чьим кодам пользователь имеет доступ (он requester)
	Received []*PermissionView
}
