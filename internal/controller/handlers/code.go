package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/security"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// HandleGetCode обрабатывает /get_code @username или /get_code email
func (h *Handlers) HandleGetCode(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	arg := commandArgument(update.Message.Text)
	if arg == "" {
		h.sendMessage(ctx, b, update.Message.Chat.ID,
			"📝 Укажи username коллеги:\n\n"+
				"Формат: <code>/get_code @username</code>\n"+
				"или <code>/get_code email@example.com</code>\n\n"+
				"💡 Сначала нужно получить разрешение:\n/request_access @username",
			nil)
		return
	}

	h.fetchCode(ctx, b, update, arg)
}

// fetchCode общий путь для /get_code, "@username" и кнопки меню
func (h *Handlers) fetchCode(ctx context.Context, b *bot.Bot, update *models.Update, raw string) {
	chatID := update.Message.Chat.ID

	key, err := model.ParseLookupKey(raw)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Укажи username или email владельца почты.", nil)
		return
	}

	target := "🔍 Ищу код..."
	if key.Kind == model.ByHandle {
		target = "🔍 Ищу код в почте " + formatting.Handle(key.Value) + "..."
	}
	searching := h.sendMessage(ctx, b, chatID, target+"\n⏳ Это может занять несколько секунд", nil)

	res, err := h.codeService.FetchCode(ctx, update.Message.From.ID, key)
	if err != nil {
		text := h.reportTo(update, "get_code", err)
		if errors.Is(err, service.ErrForbidden) && key.Kind == model.ByHandle {
			text += "\n\nЗапросить доступ:\n/request_access " + formatting.Handle(key.Value)
		}
		h.replaceMessage(ctx, b, chatID, searching, text, nil)
		return
	}

	h.replaceMessage(ctx, b, chatID, searching, formatting.FormatCodeResult(res), keyboard.CodeResult(res.Owner.ID))
}

// HandleCheckEmail обрабатывает /check_email
func (h *Handlers) HandleCheckEmail(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	checking := h.sendMessage(ctx, b, chatID, "🔄 Проверяю подключение к твоей почте...", nil)

	user, err := h.codeService.CheckMailbox(ctx, update.Message.From.ID)
	if err != nil {
		text := h.reportTo(update, "check_email", err)
		if user != nil && errors.Is(err, service.ErrConnectionFailed) {
			text += "\n\n" + formatting.FormatUserStatus(user) + "\n\nПопробуй перерегистрироваться: /unregister, затем /register"
		}
		h.replaceMessage(ctx, b, chatID, checking, text, nil)
		return
	}

	h.replaceMessage(ctx, b, chatID, checking,
		"✅ <b>Подключение успешно!</b>\n\n"+
			formatting.FormatUserStatus(user)+"\n"+
			"🔐 Доступ к почте работает\n\n"+
			"Коллеги смогут получать твои коды!",
		nil)
}

// HandleTestCode обрабатывает /test_code: владелец ищет код в своём ящике.
// Это единственное место, где пользователь видит текст ошибки, поэтому он проходит через Sanitize.
func (h *Handlers) HandleTestCode(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	searching := h.sendMessage(ctx, b, chatID, "🔍 Ищу код в твоей почте...\n⏳ Это тестовый режим", nil)

	res, err := h.codeService.TestOwnCode(ctx, update.Message.From.ID)
	if err != nil {
		text := h.reportTo(update, "test_code", err)
		if errors.Is(err, service.ErrConnectionFailed) {
			text += formatting.FormatErrorDetail(security.Sanitize(err))
		}
		h.replaceMessage(ctx, b, chatID, searching, text, nil)
		return
	}

	h.replaceMessage(ctx, b, chatID, searching, formatting.FormatOwnCodeResult(res), nil)
}
