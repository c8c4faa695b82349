package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/state"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// HandleRegister обрабатывает команду /register
func (h *Handlers) HandleRegister(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.StartRegistration(ctx, b, update.Message.Chat.ID, update.Message.From.ID)
}

// StartRegistration начинает диалог регистрации (команда и кнопка меню)
func (h *Handlers) StartRegistration(ctx context.Context, b *bot.Bot, chatID, telegramID int64) {
	existing, err := h.userService.GetByID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, "❌ Произошла ошибка. Попробуй позже.", nil)
		return
	}

	if existing != nil {
		h.sendMessage(ctx, b, chatID,
			"⚠️ Ты уже зарегистрирован!\n\n"+
				formatting.FormatUserStatus(existing)+"\n\n"+
				"Если хочешь изменить данные, сначала используй /unregister",
			nil)
		return
	}

	h.stateManager.SetState(telegramID, state.StateRegisterCredentials)

	h.sendMessage(ctx, b, chatID,
		"📧 <b>Регистрация почты</b>\n\n"+
			"Отправь одним сообщением email и пароль приложения:\n"+
			"<code>email@example.com пароль_приложения</code>\n\n"+
			"Пример:\n<code>ivan@gmail.com abcd efgh ijkl mnop</code>\n\n"+
			"⚠️ Нужен именно пароль приложения, а не основной пароль. Сообщение с паролем я сразу удалю.\n\n"+
			supportedDomainsText(h.userService.SupportedDomains())+"\n\n"+
			"Отмена: /cancel",
		nil)
}

// handleRegisterCredentials шаг диалога: получили "email пароль"
func (h *Handlers) handleRegisterCredentials(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	telegramID := msg.From.ID
	chatID := msg.Chat.ID

	// Сообщение содержит пароль и не должно оставаться в истории чата
	if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: msg.ID}); err != nil {
		h.logger.Warn("Failed to delete credentials message", zap.Int64("telegram_id", telegramID), zap.Error(err))
	}

	email, password, err := service.ParseCredentials(msg.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID,
			"❌ Неправильный формат!\n\n"+
				"Отправь данные в формате:\n<code>email@example.com пароль_приложения</code>",
			nil)
		return
	}

	checking := h.sendMessage(ctx, b, chatID, "🔄 Проверяю подключение к почте...", nil)

	user, err := h.userService.Register(ctx, service.RegisterInput{
		UserID:   telegramID,
		Username: msg.From.Username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		text := h.reportTo(update, "register", err)
		switch {
		case errors.Is(err, service.ErrUnsupportedProvider):
			text += "\n\n" + supportedDomainsText(h.userService.SupportedDomains()) + "\n\nПопробуй другой адрес или /cancel"
		case errors.Is(err, service.ErrInvalidInput):
			text += "\n\nПроверь email и попробуй снова или /cancel"
		default:
			h.stateManager.ClearState(telegramID)
			if errors.Is(err, service.ErrConnectionFailed) {
				text += "\n\nПроверь данные и попробуй снова: /register"
			}
		}
		h.replaceMessage(ctx, b, chatID, checking, text, nil)
		return
	}

	h.stateManager.ClearState(telegramID)

	handle := formatting.Handle(user.Username)
	h.replaceMessage(ctx, b, chatID, checking,
		"✅ <b>Регистрация успешна!</b>\n\n"+
			formatting.FormatUserStatus(user)+"\n\n"+
			"Теперь коллеги могут запросить доступ к твоим кодам:\n"+
			"/request_access "+handle+"\n\n"+
			"А ты можешь получать коды коллег (с их разрешения):\n"+
			"/get_code @username",
		keyboard.MainMenu(true))
}

// HandleUnregister обрабатывает команду /unregister: показывает что будет удалено и просит подтвердить
func (h *Handlers) HandleUnregister(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	list, err := h.delegationService.List(ctx, user.ID)
	if err != nil {
		h.replyError(ctx, b, update, "unregister", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatting.FormatUnregisterPreview(user, list), keyboard.UnregisterConfirm())
}

func supportedDomainsText(domains []string) string {
	var sb strings.Builder
	sb.WriteString("Поддерживаются домены:\n")
	for _, d := range domains {
		sb.WriteString("• @" + d + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
