package controller

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/clock"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/handlers"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/state"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	userService *service.UserService,
	delegationService *service.DelegationService,
	codeService *service.CodeService,
	clk clock.Clock,
	logger *zap.Logger,
) *BotController {
	stateManager := state.NewManager(clk, state.DefaultTTL)

	cmdHandlers := handlers.NewHandlers(
		userService,
		delegationService,
		codeService,
		stateManager,
		logger,
	)

	callbackHandler := callbacks.NewHandler(
		userService,
		delegationService,
		codeService,
		stateManager,
		logger,
		cmdHandlers.ShowHelp,
		cmdHandlers.StartRegistration,
	)

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		logger:          logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	exact := func(cmd string, h bot.HandlerFunc) {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypeExact, h)
	}
	// Команды с аргументом: "/get_code @user"
	withArg := func(cmd string, h bot.HandlerFunc) {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypePrefix, h)
	}

	exact("/start", c.handlers.HandleStart)
	exact("/menu", c.handlers.HandleMenu)
	exact("/help", c.handlers.HandleHelp)
	exact("/cancel", c.handlers.HandleCancel)

	// Аккаунт
	exact("/register", c.handlers.HandleRegister)
	exact("/unregister", c.handlers.HandleUnregister)
	exact("/check_email", c.handlers.HandleCheckEmail)
	exact("/test_code", c.handlers.HandleTestCode)

	// Доступы и коды
	withArg("/request_access", c.handlers.HandleRequestAccess)
	withArg("/revoke", c.handlers.HandleRevoke)
	withArg("/get_code", c.handlers.HandleGetCode)
	exact("/my_permissions", c.handlers.HandleMyPermissions)
	exact("/pending_requests", c.handlers.HandlePendingRequests)

	// Обработчик текстовых сообщений (для диалогов с состояниями и "@username")
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "menu", Description: "📋 Главное меню"},
		{Command: "register", Description: "📝 Подключить свою почту"},
		{Command: "get_code", Description: "🔑 Получить код коллеги"},
		{Command: "request_access", Description: "🔐 Запросить доступ к кодам"},
		{Command: "my_permissions", Description: "📋 Мои доступы"},
		{Command: "pending_requests", Description: "📬 Входящие запросы"},
		{Command: "revoke", Description: "🚫 Отозвать доступ"},
		{Command: "check_email", Description: "🔄 Проверить подключение к почте"},
		{Command: "test_code", Description: "🧪 Найти код в своей почте"},
		{Command: "unregister", Description: "🗑 Удалить аккаунт"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
