package keyboard

import (
	"strconv"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/coderelay_bot/internal/controller/callbacks/callbacktypes"
)

// BackToMainButton создаёт кнопку "Главное меню"
func BackToMainButton() models.InlineKeyboardButton {
	return Button("🏠 Главное меню", callbacktypes.MenuMain)
}

// MainMenu главное меню; набор кнопок зависит от регистрации
func MainMenu(registered bool) *models.InlineKeyboardMarkup {
	b := NewBuilder()
	b.RowIf(!registered, Button("📧 Зарегистрироваться", callbacktypes.MenuRegister))
	b.RowIf(registered,
		Button("🔐 Получить код", callbacktypes.MenuGetCode),
		Button("👥 Мои разрешения", callbacktypes.MenuPermissions),
	)
	b.RowIf(registered,
		Button("➕ Запросить доступ", callbacktypes.MenuRequestAccess),
		Button("⏳ Запросы ко мне", callbacktypes.MenuPending),
	)
	b.RowIf(registered, Button("🧪 Проверить свой код", callbacktypes.MenuTestCode))
	b.Row(Button("❓ Помощь", callbacktypes.MenuHelp))
	return b.Build()
}

// AccessRequest кнопки ответа владельца на запрос доступа
func AccessRequest(requesterID int64) *models.InlineKeyboardMarkup {
	id := strconv.FormatInt(requesterID, 10)
	return NewBuilder().
		Row(
			Button("✅ Разрешить", callbacktypes.PermApprove+id),
			Button("❌ Запретить", callbacktypes.PermDeny+id),
		).
		Build()
}

// UnregisterConfirm подтверждение удаления данных
func UnregisterConfirm() *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(Button("✅ Да, удалить", callbacktypes.UnregisterConfirm)).
		Row(Button("❌ Нет, отменить", callbacktypes.UnregisterCancel)).
		Build()
}

// CodeResult действия после попытки получить код
func CodeResult(ownerID int64) *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(Button("🔄 Получить ещё раз", callbacktypes.GetCodeFor+strconv.FormatInt(ownerID, 10))).
		Row(Button("👥 Мои разрешения", callbacktypes.MenuPermissions), BackToMainButton()).
		Build()
}

// CancelDialog кнопка выхода из диалога
func CancelDialog() *models.InlineKeyboardMarkup {
	return NewBuilder().Row(BackToMainButton()).Build()
}
