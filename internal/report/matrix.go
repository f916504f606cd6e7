// Package report строит табель за месяц: строка на сотрудника, колонка на
// день месяца, в ячейке — статус за этот день (или пусто). Построение матрицы
// отделено от записи .xlsx, чтобы логика была проверяема без файлов.
package report

import (
	"fmt"
	"time"

	"tabel-bot/internal/common"
	"tabel-bot/internal/storage"
)

// Row — одна строка табеля.
type Row struct {
	User  *storage.User
	Cells []string // длина == MonthMatrix.Days, пустая строка = статуса нет
}

// MonthMatrix — табель за один календарный месяц.
type MonthMatrix struct {
	Year  int
	Month time.Month
	Days  int // число дней в месяце (високосность учтена)
	Rows  []Row
}

// BuildMonthMatrix собирает табель из справочника и журнала статусов.
// Порядок строк повторяет порядок users (хранилище отдаёт их по ФИО).
// Записи за другие месяцы игнорируются.
func BuildMonthMatrix(users []*storage.User, entries []storage.StatusEntry, year int, month time.Month) MonthMatrix {
	days := common.DaysInMonth(year, month)

	type cellKey struct {
		userID int64
		day    int
	}
	labels := make(map[cellKey]string, len(entries))
	for _, e := range entries {
		if e.Date.Year() != year || e.Date.Month() != month {
			continue
		}
		labels[cellKey{e.UserID, e.Date.Day()}] = e.Label
	}

	m := MonthMatrix{Year: year, Month: month, Days: days}
	for _, u := range users {
		row := Row{User: u, Cells: make([]string, days)}
		for day := 1; day <= days; day++ {
			row.Cells[day-1] = labels[cellKey{u.UserID, day}]
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

// FileName возвращает имя файла отчёта вида "tabel_2024_02.xlsx".
func (m MonthMatrix) FileName() string {
	return fmt.Sprintf("tabel_%04d_%02d.xlsx", m.Year, int(m.Month))
}
