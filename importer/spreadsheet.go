package importer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"salesanalytics/internal/domain/repositories"
)

// ParseSpreadsheet читает первый лист книги Excel: первая строка заголовок, далее данные.
// Пустые ячейки становятся nil.
func ParseSpreadsheet(filePath string) (*repositories.RawTable, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	// Получаем имя первого листа
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty, expected a header row", sheetName)
	}

	table := &repositories.RawTable{}
	for _, header := range rows[0] {
		table.Columns = append(table.Columns, strings.TrimSpace(strings.ToLower(header)))
	}

	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		record := make(repositories.RawRecord, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(row) && row[i] != "" {
				record[col] = row[i]
			} else {
				record[col] = nil
			}
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}
