package callbacktypes

import (
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/state"
	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// ========================
// Callback Data Patterns
// ========================

// Ответ владельца на запрос доступа; после двоеточия id запрашивающего
const (
	PermApprove = "perm_approve:" // perm_approve:123
	PermDeny    = "perm_deny:"    // perm_deny:123
)

// Удаление данных
const (
	UnregisterConfirm = "unreg_confirm"
	UnregisterCancel  = "unreg_cancel"
)

// Главное меню
const (
	MenuMain          = "menu_main"
	MenuRegister      = "menu_register"
	MenuGetCode       = "menu_get_code"
	MenuRequestAccess = "menu_request_access"
	MenuPermissions   = "menu_permissions"
	MenuPending       = "menu_pending"
	MenuTestCode      = "menu_test_code"
	MenuHelp          = "menu_help"
)

// GetCodeFor повторное получение кода у владельца; после двоеточия его id
const GetCodeFor = "get_code:" // get_code:123

// Handler общие зависимости callback handlers
type Handler struct {
	UserService       *service.UserService
	DelegationService *service.DelegationService
	CodeService       *service.CodeService
	StateManager      *state.Manager
	Logger            *zap.Logger
}
