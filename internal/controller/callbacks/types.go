package callbacks

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/state"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// Handler обёртка для callbacktypes.Handler с методами
type Handler struct {
	*callbacktypes.Handler

	// handleHelp и handleRegister показывают то же, что команды /help и /register
	handleHelp     func(ctx context.Context, b *bot.Bot, chatID int64)
	handleRegister func(ctx context.Context, b *bot.Bot, chatID, telegramID int64)
}

// NewHandler создаёт обработчик callbacks с зависимостями
func NewHandler(
	userService *service.UserService,
	delegationService *service.DelegationService,
	codeService *service.CodeService,
	stateManager *state.Manager,
	logger *zap.Logger,
	handleHelp func(ctx context.Context, b *bot.Bot, chatID int64),
	handleRegister func(ctx context.Context, b *bot.Bot, chatID, telegramID int64),
) *Handler {
	return &Handler{
		Handler: &callbacktypes.Handler{
			UserService:       userService,
			DelegationService: delegationService,
			CodeService:       codeService,
			StateManager:      stateManager,
			Logger:            logger,
		},
		handleHelp:     handleHelp,
		handleRegister: handleRegister,
	}
}

// HandleCallbackQuery точка входа для всех нажатий на inline кнопки
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	Route(ctx, b, update.CallbackQuery, h)
}
