package callbacks

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/security"
)

// handleRespond кнопки "Разрешить"/"Запретить" в уведомлении владельца
func (h *Handler) handleRespond(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, prefix string) {
	requesterID, ok := security.ParseCallbackID(callback.Data, prefix)
	if !ok {
		h.Logger.Warn("Malformed permission callback", zap.String("data", callback.Data))
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Неверный формат данных")
		return
	}

	decision := decisionFor(prefix)

	common.WithUser(ctx, b, callback, h.Handler, func(hc *common.HandlerContext) {
		if _, err := h.DelegationService.Respond(ctx, hc.User.ID, requesterID, decision); err != nil {
			hc.Fail("respond", err)
			return
		}

		name := "пользователь"
		if requester, err := h.UserService.GetByID(ctx, requesterID); err == nil && requester != nil {
			name = formatting.Handle(requester.Username)
		}

		var text, answer string
		if decision == model.Approve {
			text = "✅ <b>Доступ разрешён</b>\n\n" +
				name + " теперь может получать твои коды.\n\n" +
				"Отозвать доступ: /revoke " + name
			answer = "✅ Доступ разрешён"
		} else {
			text = "❌ <b>Доступ запрещён</b>\n\nТы отклонил запрос от " + name + "."
			answer = "❌ Доступ запрещён"
		}

		if err := hc.EditMessage(text, nil); err != nil {
			h.Logger.Warn("Failed to edit request message", zap.Error(err))
		}
		hc.Answer(answer)
	})
}

// handleGetCodeAgain кнопка "Получить ещё раз" под результатом
func (h *Handler) handleGetCodeAgain(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	ownerID, ok := security.ParseCallbackID(callback.Data, callbacktypes.GetCodeFor)
	if !ok {
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❌ Неверный формат данных")
		return
	}

	common.WithUser(ctx, b, callback, h.Handler, func(hc *common.HandlerContext) {
		owner, err := h.UserService.GetByID(ctx, ownerID)
		if err != nil || owner == nil {
			hc.AnswerAlert("❌ Пользователь больше не зарегистрирован")
			return
		}

		hc.Answer("🔍 Ищу код...")

		res, err := h.CodeService.FetchCode(ctx, hc.User.ID, model.HandleKey(owner.Username))
		if err != nil {
			if sendErr := hc.SendMessage(common.Report(h.Logger, "get_code", hc.TelegramID, err), nil); sendErr != nil {
				h.Logger.Warn("Failed to send message", zap.Error(sendErr))
			}
			return
		}

		if err := hc.SendMessage(formatting.FormatCodeResult(res), keyboard.CodeResult(owner.ID)); err != nil {
			h.Logger.Warn("Failed to send code result", zap.String("fetch_id", res.FetchID), zap.Error(err))
		}
	})
}
