package state

import (
	"sync"
	"time"

	"github.com/Freeeeeet/coderelay_bot/internal/clock"
)

// Manager хранит диалоги пользователей в памяти процесса
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
	clock  clock.Clock
	ttl    time.Duration
}

// NewManager создаёт менеджер; диалог без активности дольше ttl сбрасывается
func NewManager(clk clock.Clock, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		states: make(map[int64]*UserData),
		clock:  clk,
		ttl:    ttl,
	}
}

// GetState текущее состояние пользователя. Просроченный диалог удаляется.
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	userData, ok := sm.live(telegramID)
	if !ok {
		return StateNone
	}
	return userData.State
}

// SetState устанавливает состояние пользователя
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}

	userData, ok := sm.live(telegramID)
	if !ok {
		userData = &UserData{Data: make(map[string]string)}
		sm.states[telegramID] = userData
	}
	userData.State = state
	userData.UpdatedAt = sm.clock.Now()
}

// GetData временные данные диалога
func (sm *Manager) GetData(telegramID int64, key string) (string, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	userData, ok := sm.live(telegramID)
	if !ok {
		return "", false
	}
	value, ok := userData.Data[key]
	return value, ok
}

// SetData сохраняет данные в активный диалог. Без диалога ничего не делает.
func (sm *Manager) SetData(telegramID int64, key, value string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if userData, ok := sm.live(telegramID); ok {
		userData.Data[key] = value
		userData.UpdatedAt = sm.clock.Now()
	}
}

// ClearState очищает состояние и данные пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}

// Size количество активных диалогов
func (sm *Manager) Size() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.states)
}

// live возвращает непросроченный диалог; вызывается под mu
func (sm *Manager) live(telegramID int64) (*UserData, bool) {
	userData, ok := sm.states[telegramID]
	if !ok {
		return nil, false
	}
	if sm.clock.Now().Sub(userData.UpdatedAt) > sm.ttl {
		delete(sm.states, telegramID)
		return nil, false
	}
	return userData, true
}
