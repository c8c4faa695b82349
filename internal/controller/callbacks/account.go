package callbacks

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// handleUnregisterConfirm удаляет данные нажавшего (id из callback.From)
func (h *Handler) handleUnregisterConfirm(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	hc := common.NewHandlerContext(ctx, b, callback, h.Handler)

	_, err := h.UserService.Unregister(ctx, hc.TelegramID)
	if errors.Is(err, service.ErrNotRegistered) {
		_ = hc.EditMessage("❌ Данные уже удалены!", nil)
		hc.Answer("")
		return
	}
	if err != nil {
		hc.Fail("unregister", err)
		return
	}

	h.StateManager.ClearState(hc.TelegramID)

	text := "✅ <b>Данные удалены</b>\n\n" +
		"Твои данные удалены из бота:\n" +
		"• Email и пароль\n" +
		"• Все разрешения\n\n" +
		"Чтобы снова использовать бота:\n/register"
	if err := hc.EditMessage(text, nil); err != nil {
		h.Logger.Warn("Failed to edit unregister message", zap.Error(err))
	}
	hc.Answer("Данные удалены")
}

// handleUnregisterCancel отмена удаления
func (h *Handler) handleUnregisterCancel(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	hc := common.NewHandlerContext(ctx, b, callback, h.Handler)
	if err := hc.EditMessage("✅ Удаление отменено!\n\nТвои данные в безопасности 🔒", nil); err != nil {
		h.Logger.Warn("Failed to edit unregister message", zap.Error(err))
	}
	hc.Answer("Отменено")
}
