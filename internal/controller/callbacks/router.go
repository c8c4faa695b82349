package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
)

// route вид нажатой кнопки
type route int

const (
	routeUnknown route = iota
	routeApprove
	routeDeny
	routeUnregisterConfirm
	routeUnregisterCancel
	routeGetCodeAgain
	routeMenu
)

// classify определяет обработчик по callback data
func classify(data string) route {
	switch {
	case strings.HasPrefix(data, callbacktypes.PermApprove):
		return routeApprove
	case strings.HasPrefix(data, callbacktypes.PermDeny):
		return routeDeny
	case data == callbacktypes.UnregisterConfirm:
		return routeUnregisterConfirm
	case data == callbacktypes.UnregisterCancel:
		return routeUnregisterCancel
	case strings.HasPrefix(data, callbacktypes.GetCodeFor):
		return routeGetCodeAgain
	case strings.HasPrefix(data, "menu_"):
		return routeMenu
	default:
		return routeUnknown
	}
}

// decisionFor решение владельца по префиксу кнопки
func decisionFor(prefix string) model.Decision {
	if prefix == callbacktypes.PermApprove {
		return model.Approve
	}
	return model.Deny
}

// Route распределяет callback query по обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *Handler) {
	data := callback.Data

	h.Logger.Debug("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	switch classify(data) {
	// ===== Ответ на запрос доступа =====
	case routeApprove:
		h.handleRespond(ctx, b, callback, callbacktypes.PermApprove)
	case routeDeny:
		h.handleRespond(ctx, b, callback, callbacktypes.PermDeny)

	// ===== Удаление данных =====
	case routeUnregisterConfirm:
		h.handleUnregisterConfirm(ctx, b, callback)
	case routeUnregisterCancel:
		h.handleUnregisterCancel(ctx, b, callback)

	// ===== Получение кода =====
	case routeGetCodeAgain:
		h.handleGetCodeAgain(ctx, b, callback)

	// ===== Меню =====
	case routeMenu:
		h.handleMenu(ctx, b, callback)

	default:
		h.Logger.Warn("Unknown callback data", zap.String("data", data))
		common.AnswerCallback(ctx, b, callback.ID, "")
	}
}
