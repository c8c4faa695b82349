package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Freeeeeet/coderelay_bot/internal/ratelimit"
)

// Ошибки сервисов. Контроллер превращает их в сообщения пользователю.
var (
	ErrNotFound            = errors.New("not found")
	ErrNotRegistered       = errors.New("user is not registered")
	ErrForbidden           = errors.New("no approved delegation")
	ErrAlreadyRequested    = errors.New("access already requested")
	ErrAlreadyExists       = errors.New("already exists")
	ErrSelfReference       = errors.New("owner and requester are the same user")
	ErrCredential          = errors.New("stored credential cannot be decrypted")
	ErrConnectionFailed    = errors.New("mailbox connection failed")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnsupportedProvider = errors.New("unsupported mail provider")
	ErrRateLimited         = errors.New("rate limited")
)

// RateLimitError отказ лимитера с временем до следующей попытки
type RateLimitError struct {
	Action     ratelimit.Action
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited on %s, retry after %s", e.Action, e.RetryAfter)
}

// Is позволяет проверять errors.Is(err, ErrRateLimited)
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds оставшееся время, округлённое вверх до секунды
func (e *RateLimitError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

// invalidInput оборачивает ErrInvalidInput с пояснением
func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
