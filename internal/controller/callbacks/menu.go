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
	"github.com/Freeeeeet/coderelay_bot/internal/controller/state"
)

// handleMenu кнопки главного меню
func (h *Handler) handleMenu(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	hc := common.NewHandlerContext(ctx, b, callback, h.Handler)

	switch callback.Data {
	case callbacktypes.MenuMain:
		h.showMainMenu(hc)
	case callbacktypes.MenuHelp:
		hc.Answer("")
		h.handleHelp(ctx, b, hc.ChatID)
	case callbacktypes.MenuRegister:
		hc.Answer("")
		h.handleRegister(ctx, b, hc.ChatID, hc.TelegramID)
	case callbacktypes.MenuGetCode:
		h.promptTarget(hc, state.StateGetCodeTarget,
			"🔐 <b>Получить код</b>\n\nНапиши username или email владельца почты:\n<code>@username</code> или <code>email@example.com</code>")
	case callbacktypes.MenuRequestAccess:
		h.promptTarget(hc, state.StateRequestAccessTarget,
			"➕ <b>Запросить доступ</b>\n\nНапиши username коллеги, к чьим кодам нужен доступ:\n<code>@username</code>")
	case callbacktypes.MenuPermissions:
		common.WithUser(ctx, b, callback, h.Handler, func(hc *common.HandlerContext) {
			list, err := h.DelegationService.List(ctx, hc.User.ID)
			if err != nil {
				hc.Fail("my_permissions", err)
				return
			}
			hc.Answer("")
			h.send(hc, formatting.FormatPermissions(list), nil)
		})
	case callbacktypes.MenuPending:
		common.WithUser(ctx, b, callback, h.Handler, func(hc *common.HandlerContext) {
			pending, err := h.DelegationService.Pending(ctx, hc.User.ID)
			if err != nil {
				hc.Fail("pending_requests", err)
				return
			}
			hc.Answer("")
			h.send(hc, formatting.FormatPending(pending), nil)
		})
	case callbacktypes.MenuTestCode:
		hc.Answer("🔍 Ищу код в твоей почте...")
		res, err := h.CodeService.TestOwnCode(ctx, hc.TelegramID)
		if err != nil {
			h.send(hc, common.Report(h.Logger, "test_code", hc.TelegramID, err), nil)
			return
		}
		h.send(hc, formatting.FormatOwnCodeResult(res), nil)
	default:
		hc.Answer("")
	}
}

func (h *Handler) showMainMenu(hc *common.HandlerContext) {
	user, err := h.UserService.GetByID(hc.Ctx, hc.TelegramID)
	if err != nil {
		hc.Fail("menu", err)
		return
	}

	text := "🏠 <b>Главное меню</b>\n\n"
	if user != nil {
		text += formatting.FormatUserStatus(user) + "\n\n"
	} else {
		text += "❌ Ты ещё не зарегистрирован\n\n"
	}
	text += "Выбери действие:"

	if err := hc.EditMessage(text, keyboard.MainMenu(user != nil)); err != nil {
		h.Logger.Warn("Failed to edit menu", zap.Error(err))
	}
	hc.Answer("")
}

// promptTarget переводит зарегистрированного пользователя в ожидание username/email
func (h *Handler) promptTarget(hc *common.HandlerContext, st state.UserState, prompt string) {
	if err := hc.LoadUser(); err != nil {
		hc.Fail("menu", err)
		return
	}
	h.StateManager.SetState(hc.TelegramID, st)
	hc.Answer("")
	h.send(hc, prompt+"\n\nОтмена: /cancel", nil)
}

func (h *Handler) send(hc *common.HandlerContext, text string, kb *models.InlineKeyboardMarkup) {
	if err := hc.SendMessage(text, kb); err != nil {
		h.Logger.Warn("Failed to send message", zap.Int64("chat_id", hc.ChatID), zap.Error(err))
	}
}
