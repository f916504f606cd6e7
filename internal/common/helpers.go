// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с календарными датами в настроенном часовом поясе
// и русская плюрализация.
package common

import "time"

// samaraOffset — запасной сдвиг, если база часовых поясов недоступна (UTC+4).
const samaraOffset = 4 * 60 * 60

// Location загружает часовой пояс по имени IANA.
// Если база недоступна — возвращает фиксированный UTC+4 (самарское время).
func Location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("SAMT", samaraOffset)
	}
	return loc
}

// Today возвращает текущую календарную дату (время обнулено) в поясе loc.
// Журнал статусов ключуется именно этой датой: «сегодня» для сотрудника —
// это сегодня по его рабочему времени, а не по UTC.
func Today(loc *time.Location) time.Time {
	t := time.Now().In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// FormatDate форматирует дату в привычный вид "02.01.2006".
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// DaysInMonth возвращает число дней в месяце с учётом високосных лет.
func DaysInMonth(year int, month time.Month) int {
	// Первое число следующего месяца минус один день.
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}
