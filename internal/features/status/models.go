// Package status — выбор ежедневного статуса и операции над журналом.
// models.go описывает фиксированный набор кнопок статусов.
package status

// Кнопки статусов. Любой другой текст от зарегистрированного сотрудника
// трактуется как произвольная метка статуса и пишется так же.
const (
	LabelWork     = "✅ Работаю"
	LabelVacation = "🏠 Отпуск"
	LabelSick     = "🤒 Больничный"
	LabelTrip     = "🚗 Командировка"
	LabelDayOff   = "❌ Выходной"
)

// ButtonMyStatus — сервисная кнопка «показать мой статус на сегодня».
const ButtonMyStatus = "📋 Мой статус"

// Labels — все кнопки статусов в порядке отображения.
var Labels = []string{LabelWork, LabelVacation, LabelSick, LabelTrip, LabelDayOff}

// IsKnownLabel сообщает, является ли текст одной из кнопок статуса.
func IsKnownLabel(text string) bool {
	for _, l := range Labels {
		if l == text {
			return true
		}
	}
	return false
}
