package formatting

import (
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/coderelay_bot/internal/model"
)

// previewLimit сколько имён показывать в предупреждении об удалении
const previewLimit = 5

// Handle "@username" с экранированием для HTML
func Handle(username string) string {
	return "@" + html.EscapeString(username)
}

// FormatUserStatus краткая карточка зарегистрированного пользователя
func FormatUserStatus(user *model.User) string {
	return fmt.Sprintf(
		"📧 Email: <code>%s</code>\n🏢 Провайдер: %s",
		html.EscapeString(user.Email),
		html.EscapeString(user.Provider),
	)
}

// FormatPermissions список одобренных доступов в обе стороны
func FormatPermissions(d *model.Delegations) string {
	var sb strings.Builder
	sb.WriteString("<b>🔐 Твои разрешения</b>\n\n")

	if len(d.Given) > 0 {
		sb.WriteString("<b>✅ Кому ты дал доступ к своим кодам:</b>\n")
		for _, p := range d.Given {
			sb.WriteString("• " + Handle(p.PeerUsername) + "\n")
		}
		sb.WriteString("\nОтозвать: /revoke @username\n\n")
	} else {
		sb.WriteString("📭 Ты никому не давал доступ к своим кодам\n\n")
	}

	if len(d.Received) > 0 {
		sb.WriteString("<b>📥 От кого ты получил доступ к кодам:</b>\n")
		for _, p := range d.Received {
			sb.WriteString("• " + Handle(p.PeerUsername) + "\n")
		}
		sb.WriteString("\nПолучить код: /get_code @username или просто @username")
	} else {
		sb.WriteString("📭 У тебя нет доступа к кодам коллег\nЗапросить: /request_access @username")
	}

	return sb.String()
}

// FormatPending ожидающие ответа запросы к владельцу
func FormatPending(pending []*model.PermissionView) string {
	if len(pending) == 0 {
		return "📭 Нет ожидающих запросов\n\n" +
			"Когда кто-то запросит доступ к твоим кодам, ты получишь уведомление с кнопками."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>⏳ Ожидающие запросы (%d %s):</b>\n\n", len(pending), PluralizeRequests(len(pending)))
	for _, p := range pending {
		fmt.Fprintf(&sb, "• %s\n  Запрошено: %s\n", Handle(p.PeerUsername), FormatDateTime(p.RequestedAt))
	}
	sb.WriteString("\nОтветить можно в уведомлении с кнопками.")
	return sb.String()
}

// FormatUnregisterPreview предупреждение перед удалением данных
func FormatUnregisterPreview(user *model.User, d *model.Delegations) string {
	var sb strings.Builder
	sb.WriteString("⚠️ <b>Удаление данных</b>\n\n")
	sb.WriteString(FormatUserStatus(user) + "\n\n")
	sb.WriteString("<b>Будут удалены:</b>\n")
	sb.WriteString("• Твои данные для входа в почту\n")
	fmt.Fprintf(&sb, "• Все разрешения (%d шт.)\n\n", len(d.Given)+len(d.Received))

	if n := len(d.Given); n > 0 {
		fmt.Fprintf(&sb, "⚠️ <b>Внимание!</b> %d %s имеют доступ к твоим кодам:\n", n, PluralizePeople(n))
		for i, p := range d.Given {
			if i == previewLimit {
				fmt.Fprintf(&sb, "  ... и ещё %d\n", n-previewLimit)
				break
			}
			sb.WriteString("  • " + Handle(p.PeerUsername) + "\n")
		}
		sb.WriteString("\n")
	}

	if n := len(d.Received); n > 0 {
		fmt.Fprintf(&sb, "⚠️ Ты потеряешь доступ к кодам %d %s.\n\n", n, PluralizePeople(n))
	}

	sb.WriteString("<b>Это действие нельзя отменить!</b>\n\nТы уверен?")
	return sb.String()
}
