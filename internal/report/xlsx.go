// xlsx.go — сериализация табеля в .xlsx через excelize.
// Файл собирается в памяти и отправляется документом в Telegram,
// диск не используется.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Табель"

// RenderXLSX записывает табель в xlsx и возвращает содержимое файла.
// Шапка: Таб. номер, ФИО, затем номера дней месяца.
func RenderXLSX(m MonthMatrix) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("ошибка переименования листа: %w", err)
	}

	headers := []string{"Таб. номер", "ФИО"}
	for day := 1; day <= m.Days; day++ {
		headers = append(headers, fmt.Sprintf("%d", day))
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("ошибка адресации ячейки: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("ошибка записи шапки: %w", err)
		}
	}

	for rowIdx, row := range m.Rows {
		values := []string{row.User.TabNumber, row.User.FullName}
		values = append(values, row.Cells...)
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("ошибка адресации ячейки: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("ошибка записи строки: %w", err)
			}
		}
	}

	// ФИО шире, дни узкие.
	if err := f.SetColWidth(sheetName, "A", "A", 12); err != nil {
		return nil, fmt.Errorf("ошибка ширины колонок: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "B", 30); err != nil {
		return nil, fmt.Errorf("ошибка ширины колонок: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
