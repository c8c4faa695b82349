package formatting

import (
	"fmt"
	"html"

	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

// FormatCodeResult результат получения чужого кода
func FormatCodeResult(res *service.CodeResult) string {
	owner := Handle(res.Owner.Username)
	if !res.Found {
		return "😞 <b>Код не найден</b>\n\n" +
			"Возможные причины:\n" +
			"• В последних письмах нет кодов\n" +
			"• Коды старше 10 минут (устарели)\n" +
			"• Письмо с кодом ещё не пришло\n\n" +
			"💡 Подожди несколько секунд и повтори: /get_code " + owner
	}

	return fmt.Sprintf(
		"✅ <b>Код найден!</b>\n\n"+
			"🔐 Код: <code>%s</code>\n\n"+
			"👤 От: %s\n"+
			"📧 Почта: %s\n\n"+
			"💡 Нажми на код, чтобы скопировать",
		html.EscapeString(res.Code),
		owner,
		html.EscapeString(res.Owner.Email),
	)
}

// FormatOwnCodeResult результат проверки своего ящика
func FormatOwnCodeResult(res *service.CodeResult) string {
	if !res.Found {
		return "⚠️ <b>Коды не найдены</b>\n\n" +
			"В последних письмах нет свежих кодов.\n\n" +
			"Попробуй:\n" +
			"1. Запроси код на свою почту\n" +
			"2. Подожди несколько секунд\n" +
			"3. Повтори команду /test_code"
	}
	return fmt.Sprintf(
		"✅ <b>Тест успешен!</b>\n\n🔐 Найден код: <code>%s</code>\n\nЭто твой собственный код из твоей почты.",
		html.EscapeString(res.Code),
	)
}

// FormatErrorDetail блок с деталями ошибки; текст уже очищен от секретов,
// здесь он только экранируется для HTML
func FormatErrorDetail(detail string) string {
	if detail == "" {
		return ""
	}
	return "\n\nДетали: <code>" + html.EscapeString(detail) + "</code>"
}
