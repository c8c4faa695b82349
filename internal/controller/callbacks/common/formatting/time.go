package formatting

import (
	"fmt"
	"time"
)

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatSeconds "42 секунды"; меньше секунды округляется до одной
func FormatSeconds(seconds int) string {
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("%d %s", seconds, PluralizeSeconds(seconds))
}
