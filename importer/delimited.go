package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"salesanalytics/internal/domain/repositories"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText возвращает текст в UTF-8. Невалидный UTF-8 считается Windows-1251.
func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}

	decoder := charmap.Windows1251.NewDecoder()
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Windows-1251: %w", err)
	}
	return decoded, nil
}

// ParseDelimited разбирает CSV с заголовком. Пустые ячейки становятся nil,
// строки с другим числом полей дополняются или обрезаются по заголовку.
func ParseDelimited(data []byte) (*repositories.RawTable, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty, expected a header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	table := &repositories.RawTable{}
	for _, h := range header {
		table.Columns = append(table.Columns, strings.TrimSpace(h))
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if isEmptyRow(row) {
			continue
		}

		record := make(repositories.RawRecord, len(table.Columns))
		for i, col := range table.Columns {
			if i >= len(row) || row[i] == "" {
				record[col] = nil
				continue
			}
			record[col] = row[i]
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}

// isEmptyRow проверяет, является ли строка пустой
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
