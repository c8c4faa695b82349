package clock

import (
	"sync"
	"time"
)

// Clock абстрагирует текущее время.
// В продакшене используется Real(), в тестах Fake() с ручным управлением временем.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// Real возвращает часы, основанные на time.Now
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

// FakeClock часы для тестов, время двигается только через Advance/Set
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Fake создаёт тестовые часы, остановленные на start
func Fake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now возвращает текущее (фиктивное) время
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance сдвигает время вперёд на d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set устанавливает время
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
