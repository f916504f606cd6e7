package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tabel-bot/internal/storage"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func leapFixture() ([]*storage.User, []storage.StatusEntry) {
	users := []*storage.User{
		{UserID: 1, FullName: "Иванов Иван", TabNumber: "100"},
		{UserID: 2, FullName: "Петров Пётр", TabNumber: "200"},
	}
	entries := []storage.StatusEntry{
		{UserID: 1, Date: date(2024, time.February, 1), Label: "✅ Работаю"},
		{UserID: 1, Date: date(2024, time.February, 29), Label: "🏠 Отпуск"},
		{UserID: 2, Date: date(2024, time.February, 15), Label: "🤒 Больничный"},
		// Запись за другой месяц в табель не попадает.
		{UserID: 2, Date: date(2024, time.March, 1), Label: "✅ Работаю"},
	}
	return users, entries
}

func TestBuildMonthMatrixLeapFebruary(t *testing.T) {
	users, entries := leapFixture()
	m := BuildMonthMatrix(users, entries, 2024, time.February)

	assert.Equal(t, 29, m.Days, "февраль 2024 — високосный")
	require.Len(t, m.Rows, 2)
	require.Len(t, m.Rows[0].Cells, 29)
	require.Len(t, m.Rows[1].Cells, 29)

	assert.Equal(t, "✅ Работаю", m.Rows[0].Cells[0])
	assert.Equal(t, "🏠 Отпуск", m.Rows[0].Cells[28])
	assert.Equal(t, "🤒 Больничный", m.Rows[1].Cells[14])

	// Ровно три заполненные ячейки, остальные пустые.
	filled := 0
	for _, row := range m.Rows {
		for _, cell := range row.Cells {
			if cell != "" {
				filled++
			}
		}
	}
	assert.Equal(t, 3, filled)

	assert.Equal(t, "tabel_2024_02.xlsx", m.FileName())
}

func TestBuildMonthMatrixEmpty(t *testing.T) {
	m := BuildMonthMatrix(nil, nil, 2023, time.February)
	assert.Equal(t, 28, m.Days)
	assert.Empty(t, m.Rows)
}

func TestRenderXLSXRoundTrip(t *testing.T) {
	users, entries := leapFixture()
	m := BuildMonthMatrix(users, entries, 2024, time.February)

	data, err := RenderXLSX(m)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue("Табель", cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Таб. номер", get("A1"))
	assert.Equal(t, "ФИО", get("B1"))
	assert.Equal(t, "1", get("C1"))

	// Последняя колонка дней: 2 служебные + 29 — то есть 31-я (AE).
	last, err := excelize.CoordinatesToCellName(2+29, 1)
	require.NoError(t, err)
	assert.Equal(t, "29", get(last))

	assert.Equal(t, "Иванов Иван", get("B2"))
	assert.Equal(t, "✅ Работаю", get("C2"))
	assert.Equal(t, "🤒 Больничный", get("Q3")) // 15-й день = колонка Q

	rows, err := f.GetRows("Табель")
	require.NoError(t, err)
	assert.Len(t, rows, 3, "шапка и две строки сотрудников")
}
