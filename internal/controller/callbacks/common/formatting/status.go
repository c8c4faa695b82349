package formatting

import "github.com/Freeeeeet/coderelay_bot/internal/model"

// PermissionStatusDisplay отображение статуса доступа
type PermissionStatusDisplay struct {
	Emoji string
	Text  string
}

// GetPermissionStatusDisplay возвращает emoji и текст для статуса доступа
func GetPermissionStatusDisplay(status model.PermissionStatus) PermissionStatusDisplay {
	displays := map[model.PermissionStatus]PermissionStatusDisplay{
		model.PermissionPending:  {"⏳", "Ожидает ответа"},
		model.PermissionApproved: {"✅", "Разрешён"},
		model.PermissionDenied:   {"🚫", "Отклонён"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return PermissionStatusDisplay{"❓", "Неизвестно"}
}
