package formatting

// pluralize выбирает форму слова для 1, 2-4 и 5+ (с учётом 11-14)
func pluralize(count int, one, few, many string) string {
	if count < 0 {
		count = -count
	}
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}

// PluralizeSeconds склонение слова "секунда" (в винительном падеже: "через 1 секунду")
func PluralizeSeconds(count int) string {
	return pluralize(count, "секунду", "секунды", "секунд")
}

// PluralizeRequests склонение слова "запрос"
func PluralizeRequests(count int) string {
	return pluralize(count, "запрос", "запроса", "запросов")
}

// PluralizePeople склонение слова "человек" для "N человек имеют доступ"
func PluralizePeople(count int) string {
	return pluralize(count, "человек", "человека", "человек")
}
