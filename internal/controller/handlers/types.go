package handlers

import (
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/state"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService       *service.UserService
	delegationService *service.DelegationService
	codeService       *service.CodeService
	stateManager      *state.Manager
	logger            *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	delegationService *service.DelegationService,
	codeService *service.CodeService,
	stateManager *state.Manager,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:       userService,
		delegationService: delegationService,
		codeService:       codeService,
		stateManager:      stateManager,
		logger:            logger,
	}
}
