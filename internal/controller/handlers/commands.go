package handlers

import (
	"context"
	"html"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/state"
)

const helpText = "❓ <b>Справка по боту</b>\n\n" +
	"Бот пересылает одноразовые коды из твоей почты коллегам, которым ты разрешил доступ.\n\n" +
	"<b>Регистрация:</b>\n" +
	"/register - Подключить почту (нужен пароль приложения)\n" +
	"/check_email - Проверить подключение к почте\n" +
	"/test_code - Найти код в своей почте\n" +
	"/unregister - Удалить свои данные\n\n" +
	"<b>Доступ:</b>\n" +
	"/request_access @username - Запросить доступ к кодам коллеги\n" +
	"/pending_requests - Запросы, ожидающие твоего ответа\n" +
	"/my_permissions - Кому ты дал доступ и от кого получил\n" +
	"/revoke @username - Отозвать доступ\n\n" +
	"<b>Коды:</b>\n" +
	"/get_code @username или /get_code email - Получить свежий код\n" +
	"Или просто отправь <code>@username</code>\n\n" +
	"/cancel - Отменить текущую операцию"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	user, err := h.userService.GetByID(ctx, from.ID)
	if err != nil {
		h.replyError(ctx, b, update, "start", err)
		return
	}

	name := from.FirstName
	if name == "" {
		name = "друг"
	}

	text := "👋 Привет, " + html.EscapeString(name) + "!\n\n" +
		"Я помогаю делиться одноразовыми кодами из почты с коллегами, которым ты доверяешь.\n\n"
	if user != nil {
		text += formatting.FormatUserStatus(user) + "\n\n"
	} else {
		text += "⚠️ Ты ещё не зарегистрирован!\nИспользуй кнопку ниже для регистрации.\n\n"
	}
	text += "💡 Используй кнопки ниже для быстрого доступа к функциям"

	h.sendMessage(ctx, b, update.Message.Chat.ID, text, keyboard.MainMenu(user != nil))

	h.logger.Info("User started bot",
		zap.Int64("telegram_id", from.ID),
		zap.Bool("registered", user != nil),
	)
}

// HandleMenu обрабатывает команду /menu
func (h *Handlers) HandleMenu(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user, err := h.userService.GetByID(ctx, update.Message.From.ID)
	if err != nil {
		h.replyError(ctx, b, update, "menu", err)
		return
	}

	text := "🏠 <b>Главное меню</b>\n\n"
	if user != nil {
		text += formatting.FormatUserStatus(user) + "\n\n"
	} else {
		text += "❌ Ты ещё не зарегистрирован\n\n"
	}
	text += "Выбери действие:"

	h.sendMessage(ctx, b, update.Message.Chat.ID, text, keyboard.MainMenu(user != nil))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.ShowHelp(ctx, b, update.Message.Chat.ID)
}

// ShowHelp отправляет справку (команда /help и кнопка меню)
func (h *Handlers) ShowHelp(ctx context.Context, b *bot.Bot, chatID int64) {
	h.sendMessage(ctx, b, chatID, helpText, keyboard.NewBuilder().Row(keyboard.BackToMainButton()).Build())
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.", nil)
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуй /help для просмотра доступных команд.", nil)
}

// HandleTextMessage обрабатывает текст вне команд: шаги диалогов и "@username"
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// Команды обрабатываются своими handlers
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	switch currentState {
	case state.StateRegisterCredentials:
		h.handleRegisterCredentials(ctx, b, update)
	case state.StateGetCodeTarget:
		h.stateManager.ClearState(telegramID)
		h.fetchCode(ctx, b, update, update.Message.Text)
	case state.StateRequestAccessTarget:
		h.stateManager.ClearState(telegramID)
		h.requestAccess(ctx, b, update, update.Message.Text)
	case state.StateNone:
		if isBareHandle(update.Message.Text) {
			h.fetchCode(ctx, b, update, update.Message.Text)
			return
		}
		h.logger.Debug("No active state, ignoring message", zap.Int64("telegram_id", telegramID))
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(currentState)))
		h.stateManager.ClearState(telegramID)
	}
}

// reportTo сокращение для ответа ошибкой на сообщение
func (h *Handlers) reportTo(update *models.Update, op string, err error) string {
	return common.Report(h.logger, op, update.Message.From.ID, err)
}
