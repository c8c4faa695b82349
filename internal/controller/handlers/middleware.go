package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// requireUser проверяет что пользователь зарегистрирован
// Возвращает user и true если OK, nil и false если нет (ответ уже отправлен)
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByID(ctx, telegramID)
	if err != nil {
		h.replyError(ctx, b, update, "load_user", err)
		return nil, false
	}

	if user == nil {
		h.replyError(ctx, b, update, "load_user", service.ErrNotRegistered)
		return nil, false
	}

	return user, true
}

// replyError отвечает пользователю текстом ошибки без внутренних деталей
func (h *Handlers) replyError(ctx context.Context, b *bot.Bot, update *models.Update, op string, err error) {
	text := common.Report(h.logger, op, update.Message.From.ID, err)
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, nil)
}

// sendMessage отправляет HTML сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, kb *models.InlineKeyboardMarkup) *models.Message {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}

	msg, err := b.SendMessage(ctx, params)
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return nil
	}
	return msg
}

// replaceMessage заменяет текст промежуточного сообщения ("Ищу код...");
// если его нет, отправляет новое
func (h *Handlers) replaceMessage(ctx context.Context, b *bot.Bot, chatID int64, msg *models.Message, text string, kb *models.InlineKeyboardMarkup) {
	if msg == nil {
		h.sendMessage(ctx, b, chatID, text, kb)
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: msg.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}

	if _, err := b.EditMessageText(ctx, params); err != nil && !common.IsMessageNotModifiedError(err) {
		h.logger.Warn("Failed to edit message, sending new one", zap.Error(err))
		h.sendMessage(ctx, b, chatID, text, kb)
	}
}
