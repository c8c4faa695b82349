package state

import "time"

// UserState текущий шаг диалога пользователя
type UserState string

const (
	StateNone UserState = "" // Нет активного диалога

	// Регистрация: ждём "email пароль_приложения"
	StateRegisterCredentials UserState = "register_credentials"

	// Кнопки меню: ждём username или email
	StateGetCodeTarget       UserState = "get_code_target"
	StateRequestAccessTarget UserState = "request_access_target"
)

// DefaultTTL через сколько брошенный диалог считается завершённым
const DefaultTTL = 10 * time.Minute

// UserData состояние диалога одного пользователя
type UserData struct {
	State     UserState
	Data      map[string]string
	UpdatedAt time.Time
}
