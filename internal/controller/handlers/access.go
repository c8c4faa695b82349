package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// HandleRequestAccess обрабатывает /request_access @username
func (h *Handlers) HandleRequestAccess(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	arg := commandArgument(update.Message.Text)
	if arg == "" {
		h.sendMessage(ctx, b, update.Message.Chat.ID,
			"📝 Укажи username коллеги:\n\n"+
				"Формат: <code>/request_access @username</code>\n\n"+
				"Пример:\n<code>/request_access @ivan_petrov</code>",
			nil)
		return
	}

	h.requestAccess(ctx, b, update, arg)
}

func (h *Handlers) requestAccess(ctx context.Context, b *bot.Bot, update *models.Update, raw string) {
	chatID := update.Message.Chat.ID

	key, err := model.ParseLookupKey(raw)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Укажи username или email коллеги.", nil)
		return
	}

	owner, err := h.delegationService.RequestAccess(ctx, update.Message.From.ID, key)
	if err != nil {
		text := h.reportTo(update, "request_access", err)
		switch {
		case errors.Is(err, service.ErrAlreadyExists) && owner != nil:
			handle := formatting.Handle(owner.Username)
			text = "✅ У тебя уже есть доступ к кодам " + handle + "!\n\nПолучить код: /get_code " + handle
		case errors.Is(err, service.ErrSelfReference):
			text = "😅 Нельзя запросить доступ к своим кодам!"
		case errors.Is(err, service.ErrNotFound):
			text += "\n\nПопроси коллегу использовать /register"
		}
		h.sendMessage(ctx, b, chatID, text, nil)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Запрос отправлен "+formatting.Handle(owner.Username)+"!\nОжидай ответа.", nil)
}

// HandleMyPermissions обрабатывает /my_permissions
func (h *Handlers) HandleMyPermissions(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	list, err := h.delegationService.List(ctx, user.ID)
	if err != nil {
		h.replyError(ctx, b, update, "my_permissions", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatting.FormatPermissions(list), nil)
}

// HandlePendingRequests обрабатывает /pending_requests
func (h *Handlers) HandlePendingRequests(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	pending, err := h.delegationService.Pending(ctx, user.ID)
	if err != nil {
		h.replyError(ctx, b, update, "pending_requests", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatting.FormatPending(pending), nil)
}

// HandleRevoke обрабатывает /revoke @username
func (h *Handlers) HandleRevoke(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	key, err := model.ParseLookupKey(commandArgument(update.Message.Text))
	if err != nil {
		h.sendMessage(ctx, b, chatID,
			"📝 Укажи username:\n\n"+
				"Формат: <code>/revoke @username</code>\n\n"+
				"Пример:\n<code>/revoke @ivan_petrov</code>",
			nil)
		return
	}

	requester, deleted, err := h.delegationService.RevokeByKey(ctx, user.ID, key)
	if err != nil {
		h.replyError(ctx, b, update, "revoke", err)
		return
	}

	handle := formatting.Handle(requester.Username)
	if !deleted {
		h.sendMessage(ctx, b, chatID, "⚠️ У "+handle+" не было доступа к твоим кодам.", nil)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Доступ отозван!\n\n"+handle+" больше не может получать твои коды.", nil)
}
