package common

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/callbacktypes"
)

// WithUser создаёт HandlerContext и загружает пользователя.
// При ошибке сам отвечает пользователю, handler не вызывается.
func WithUser(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.LoadUser(); err != nil {
		h.Logger.Debug("Failed to load user",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.Error(err))
		hc.Fail("load_user", err)
		return
	}

	handler(hc)
}

// StripHTML убирает разметку для alert-ов, где HTML не поддерживается
func StripHTML(text string) string {
	replacer := strings.NewReplacer("<b>", "", "</b>", "", "<code>", "", "</code>", "")
	return replacer.Replace(text)
}
