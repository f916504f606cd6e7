// Package admin — админ-панель: список сотрудников, выдача и снятие прав,
// удаление, рассылка, сводка за день и экспорт табеля за месяц.
// models.go описывает состояния пошаговых диалогов панели.
package admin

import (
	"time"

	"tabel-bot/internal/storage"
)

// Состояния диалога админ-панели.
const (
	// StatePromoteSelect — ждём номер сотрудника из списка для выдачи прав.
	StatePromoteSelect = "promote_select"
	// StateDemoteSelect — ждём номер админа из списка для снятия прав.
	StateDemoteSelect = "demote_select"
	// StateDeleteSelect — ждём номер сотрудника для удаления.
	StateDeleteSelect = "delete_select"
	// StateBroadcastText — ждём текст рассылки.
	StateBroadcastText = "broadcast_text"
	// StateExportMonth — ждём "ГГГГ ММ" для экспорта табеля.
	StateExportMonth = "export_month"
)

// PanelState — текущее состояние диалога панели (в памяти, с таймаутом).
type PanelState struct {
	State     string
	Users     []*storage.User // нумерованный список, из которого выбирают
	ExpiresAt time.Time
}
