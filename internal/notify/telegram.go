package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// Sender отправка сообщений (реализует *bot.Bot)
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram доставляет уведомления сервисов в личные сообщения
type Telegram struct {
	sender Sender
	logger *zap.Logger
}

func NewTelegram(sender Sender, logger *zap.Logger) *Telegram {
	return &Telegram{sender: sender, logger: logger}
}

var _ service.Notifier = (*Telegram)(nil)

// Notify отправляет уведомление получателю
func (t *Telegram) Notify(ctx context.Context, event service.Event) error {
	text, kb, err := Render(event)
	if err != nil {
		return err
	}

	params := &bot.SendMessageParams{
		ChatID:    event.RecipientID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}

	if _, err := t.sender.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	t.logger.Debug("Notification delivered",
		zap.Int("kind", int(event.Kind)),
		zap.Int64("recipient_id", event.RecipientID),
		zap.Int64("peer_id", event.PeerID),
	)
	return nil
}

// Render текст и клавиатура уведомления
func Render(event service.Event) (string, *models.InlineKeyboardMarkup, error) {
	peer := formatting.Handle(event.PeerName)

	switch event.Kind {
	case service.EventAccessRequested:
		return fmt.Sprintf(
			"🔔 <b>Новый запрос доступа!</b>\n\n"+
				"👤 %s хочет получать коды из твоей почты.\n\n"+
				"Разрешить?", peer),
			keyboard.AccessRequest(event.PeerID), nil

	case service.EventAccessApproved:
		return fmt.Sprintf(
			"✅ <b>Доступ разрешён!</b>\n\n"+
				"%s разрешил тебе получать коды.\n\n"+
				"Получить код: /get_code %s", peer, peer), nil, nil

	case service.EventAccessDenied:
		return fmt.Sprintf("❌ %s отклонил твой запрос на доступ к кодам.", peer), nil, nil

	case service.EventAccessRevoked:
		return fmt.Sprintf("🚫 %s отозвал твой доступ к кодам.", peer), nil, nil

	case service.EventCodeFetched:
		return fmt.Sprintf(
			"ℹ️ %s получил код из твоей почты.\n🕐 %s UTC\n\n"+
				"Отозвать доступ: /revoke %s",
			peer, formatting.FormatDateTime(event.At.UTC()), peer), nil, nil

	case service.EventOwnerUnregistered:
		return fmt.Sprintf(
			"⚠️ %s удалил свои данные из бота.\n"+
				"Доступ к его кодам больше недоступен.", peer), nil, nil

	case service.EventRequesterUnregistered:
		return fmt.Sprintf(
			"ℹ️ %s удалил свои данные из бота.\n"+
				"Его доступ к твоим кодам снят.", peer), nil, nil

	default:
		return "", nil, fmt.Errorf("unknown notification kind %d", event.Kind)
	}
}
