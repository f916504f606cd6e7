// pluralize.go — правильное склонение русских числительных
// для сообщений бота и сводок.
package common

import "math"

// PluralizeEmployees возвращает правильную форму слова «сотрудник» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "сотрудник" (1, 21, 31, 101, ...)
//   - n%10 в [2,4] И n%100 НЕ в [12,14] → "сотрудника" (2, 3, 4, 22, ...)
//   - Остальные случаи → "сотрудников" (0, 5-20, 25-30, ...)
func PluralizeEmployees(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "сотрудник"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "сотрудника"
	}
	return "сотрудников"
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
func PluralizeDays(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "день"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "дня"
	}
	return "дней"
}
