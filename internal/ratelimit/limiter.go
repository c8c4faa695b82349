package ratelimit

import (
	"sync"
	"time"

	"github.com/Freeeeeet/coderelay_bot/internal/clock"
)

// Action тип действия, для которого считается лимит
type Action string

const (
	ActionGetCode       Action = "get_code"
	ActionRegister      Action = "register"
	ActionRequestAccess Action = "request_access"
	ActionCheckEmail    Action = "check_email"
	ActionMyCode        Action = "my_code"
	ActionDefault       Action = "default"
)

// Policy максимум запросов в скользящем окне
type Policy struct {
	Max    int
	Window time.Duration
}

// DefaultPolicies лимиты по умолчанию для каждого действия
func DefaultPolicies() map[Action]Policy {
	return map[Action]Policy{
		ActionGetCode:       {Max: 5, Window: time.Minute},
		ActionRegister:      {Max: 3, Window: 5 * time.Minute},
		ActionRequestAccess: {Max: 10, Window: time.Minute},
		ActionCheckEmail:    {Max: 3, Window: time.Minute},
		ActionMyCode:        {Max: 5, Window: time.Minute},
		ActionDefault:       {Max: 20, Window: time.Minute},
	}
}

const shardCount = 32

type key struct {
	subject int64
	action  Action
}

// window отметки времени запросов по одному (subject, action)
type window struct {
	hits   []time.Time
	length time.Duration
}

type shard struct {
	mu      sync.Mutex
	windows map[key]*window
}

// Limiter ограничивает частоту действий по скользящему окну.
// Состояние живёт только в памяти процесса. Блокировки шардированы по subject,
// поэтому запросы разных пользователей не ждут друг друга.
type Limiter struct {
	clock         clock.Clock
	policies      map[Action]Policy
	sweepInterval time.Duration

	shards [shardCount]shard

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// NewLimiter создаёт лимитер. Пустые записи вычищаются не чаще раза в sweepInterval.
func NewLimiter(clk clock.Clock, policies map[Action]Policy, sweepInterval time.Duration) *Limiter {
	if policies == nil {
		policies = DefaultPolicies()
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}

	l := &Limiter{
		clock:         clk,
		policies:      policies,
		sweepInterval: sweepInterval,
		lastSweep:     clk.Now(),
	}
	for i := range l.shards {
		l.shards[i].windows = make(map[key]*window)
	}
	return l
}

// Policy возвращает политику для действия (или default)
func (l *Limiter) Policy(action Action) Policy {
	if p, ok := l.policies[action]; ok {
		return p
	}
	if p, ok := l.policies[ActionDefault]; ok {
		return p
	}
	return DefaultPolicies()[ActionDefault]
}

// AllowAction проверяет лимит по настроенной политике действия
func (l *Limiter) AllowAction(subject int64, action Action) (bool, time.Duration) {
	p := l.Policy(action)
	return l.Allow(subject, action, p.Max, p.Window)
}

// Allow пропускает запрос, если за последние window было меньше max запросов.
// При отказе возвращает время до освобождения слота.
func (l *Limiter) Allow(subject int64, action Action, max int, windowLength time.Duration) (bool, time.Duration) {
	now := l.clock.Now()
	l.maybeSweep(now)

	s := l.shardFor(subject)
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{subject: subject, action: action}
	w, ok := s.windows[k]
	if !ok {
		w = &window{}
		s.windows[k] = w
	}
	w.length = windowLength
	w.prune(now)

	if len(w.hits) >= max {
		if len(w.hits) == 0 {
			return false, windowLength
		}
		remaining := w.hits[0].Add(windowLength).Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		return false, remaining
	}

	w.hits = append(w.hits, now)
	return true, 0
}

// Reset сбрасывает счётчик (например, после перерегистрации)
func (l *Limiter) Reset(subject int64, action Action) {
	s := l.shardFor(subject)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key{subject: subject, action: action})
}

// Size количество отслеживаемых (subject, action)
func (l *Limiter) Size() int {
	total := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		total += len(s.windows)
		s.mu.Unlock()
	}
	return total
}

func (l *Limiter) shardFor(subject int64) *shard {
	idx := uint64(subject) % shardCount
	return &l.shards[idx]
}

// maybeSweep удаляет пустые окна. Шарды блокируются по очереди, не все сразу.
func (l *Limiter) maybeSweep(now time.Time) {
	l.sweepMu.Lock()
	if now.Sub(l.lastSweep) < l.sweepInterval {
		l.sweepMu.Unlock()
		return
	}
	l.lastSweep = now
	l.sweepMu.Unlock()

	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for k, w := range s.windows {
			w.prune(now)
			if len(w.hits) == 0 {
				delete(s.windows, k)
			}
		}
		s.mu.Unlock()
	}
}

// prune оставляет только отметки новее now-length (хиты отсортированы по времени)
func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.length)
	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.hits = append(w.hits[:0], w.hits[i:]...)
	}
}
