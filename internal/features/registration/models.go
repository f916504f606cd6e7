// Package registration — пошаговый диалог регистрации нового сотрудника.
// models.go описывает состояния диалога и сессию с накопленными полями.
package registration

import "time"

// State — состояние диалога регистрации. Линейная цепочка:
// AwaitingName → AwaitingTab → AwaitingPhone → (запись в базу, сессия стирается).
type State int

const (
	// StateAwaitingName — ждём ФИО.
	StateAwaitingName State = iota
	// StateAwaitingTab — ждём табельный номер.
	StateAwaitingTab
	// StateAwaitingPhone — ждём телефон; после него сотрудник сохраняется.
	StateAwaitingPhone
)

// Session — незавершённая регистрация одного чата. Живёт только в памяти:
// частичные данные не персистятся, брошенная сессия истекает по TTL.
type Session struct {
	State     State
	FullName  string
	TabNumber string
	ExpiresAt time.Time
}
