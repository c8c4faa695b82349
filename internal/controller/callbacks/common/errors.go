package common

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// Ошибки обработчиков
var (
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки.
// ok=false для ошибок вне таксономии сервисов.
func ErrorMessage(err error) (text string, ok bool) {
	var rl *service.RateLimitError

	switch {
	case errors.As(err, &rl):
		return fmt.Sprintf("⏳ Слишком много запросов. Попробуй через %s.", FormatRetryAfter(rl.RetryAfterSeconds())), true
	case errors.Is(err, service.ErrNotRegistered):
		return "❌ Сначала зарегистрируйся!\nИспользуй /register", true
	case errors.Is(err, service.ErrNotFound):
		return "❌ Пользователь не найден.\n\nВозможно, он ещё не зарегистрирован в боте или username указан неверно.", true
	case errors.Is(err, service.ErrForbidden):
		return "🔒 <b>Доступ запрещён!</b>\n\nУ тебя нет разрешения на получение кодов этого пользователя.", true
	case errors.Is(err, service.ErrAlreadyRequested):
		return "⚠️ Запрос уже отправлен ранее!\nОжидай ответа от коллеги.", true
	case errors.Is(err, service.ErrAlreadyExists):
		return "⚠️ Такая запись уже существует.", true
	case errors.Is(err, service.ErrSelfReference):
		return "😅 Свой код приходит тебе на почту напрямую!\nПроверить подключение: /test_code", true
	case errors.Is(err, service.ErrCredential):
		return "❌ Ошибка расшифрования данных!\nОбратись к администратору.", true
	case errors.Is(err, service.ErrConnectionFailed):
		return "❌ <b>Ошибка подключения к почте!</b>\n\n" +
			"Возможные причины:\n" +
			"• Неправильный или изменённый пароль приложения\n" +
			"• Не включен доступ по IMAP\n" +
			"• Временные проблемы у почтового провайдера", true
	case errors.Is(err, service.ErrUnsupportedProvider):
		return "❌ Неподдерживаемый email провайдер!", true
	case errors.Is(err, service.ErrInvalidInput):
		return "❌ Неверный формат данных.", true
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения", true
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных", true
	default:
		return "❌ Произошла ошибка", false
	}
}

// Report превращает ошибку в текст для пользователя.
// Неизвестные ошибки логируются полностью, пользователь видит только код обращения.
func Report(logger *zap.Logger, op string, telegramID int64, err error) string {
	text, ok := ErrorMessage(err)
	if ok {
		logger.Debug("Request rejected",
			zap.String("op", op),
			zap.Int64("telegram_id", telegramID),
			zap.Error(err),
		)
		return text
	}

	ref := uuid.NewString()[:8]
	logger.Error("Request failed",
		zap.String("op", op),
		zap.Int64("telegram_id", telegramID),
		zap.String("ref", ref),
		zap.Error(err),
	)
	return fmt.Sprintf("%s. Попробуй позже.\nКод ошибки: <code>%s</code>", text, ref)
}
