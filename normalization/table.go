package normalization

import (
	"fmt"
	"strconv"
	"strings"

	"salesanalytics/internal/domain/repositories"
)

// ColumnTransform чистое преобразование колонки: значения на входе и на выходе в том же порядке
type ColumnTransform func(values []any) []any

// Table упорядоченный набор строк (колонка -> значение), над которым работают нормализаторы
type Table struct {
	columns []string
	rows    []repositories.RawRecord
}

// NewTable создает таблицу из сырой таблицы источника
func NewTable(raw *repositories.RawTable) *Table {
	if raw == nil {
		return &Table{}
	}
	columns := make([]string, len(raw.Columns))
	copy(columns, raw.Columns)
	rows := make([]repositories.RawRecord, len(raw.Records))
	for i, rec := range raw.Records {
		row := make(repositories.RawRecord, len(rec))
		for k, v := range rec {
			row[k] = v
		}
		rows[i] = row
	}
	return &Table{columns: columns, rows: rows}
}

// Len количество строк
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns имена колонок
func (t *Table) Columns() []string {
	return t.columns
}

// HasColumn проверяет наличие колонки
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Row возвращает строку по индексу
func (t *Table) Row(i int) repositories.RawRecord {
	return t.rows[i]
}

// Column возвращает значения колонки. Для отсутствующей колонки все значения nil.
func (t *Table) Column(name string) []any {
	values := make([]any, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[name]
	}
	return values
}

// SetColumn записывает значения колонки, добавляя ее при необходимости
func (t *Table) SetColumn(name string, values []any) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %s: got %d values for %d rows", name, len(values), len(t.rows))
	}
	if !t.HasColumn(name) {
		t.columns = append(t.columns, name)
	}
	for i, row := range t.rows {
		row[name] = values[i]
	}
	return nil
}

// Apply применяет преобразование к колонке и возвращает число значений,
// которые были заданы, а после преобразования стали nil (некорректные значения).
func (t *Table) Apply(name string, transform ColumnTransform) (int, error) {
	before := t.Column(name)
	after := transform(before)
	if err := t.SetColumn(name, after); err != nil {
		return 0, err
	}
	malformed := 0
	for i := range before {
		if !IsBlank(before[i]) && after[i] == nil {
			malformed++
		}
	}
	return malformed, nil
}

// IsBlank возвращает true для nil и строк из одних пробелов
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}

// AsString приводит значение к строке. nil дает пустую строку и false.
func AsString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case fmt.Stringer:
		return val.String(), true
	}
	return fmt.Sprint(v), true
}

// AsInt64 приводит значение к целому. Дробные числа отбрасывают дробную часть.
func AsInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case float32:
		return int64(val), true
	case float64:
		if val != val {
			return 0, false
		}
		return int64(val), true
	case string:
		s := strings.TrimSpace(val)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == f {
			return int64(f), true
		}
	}
	return 0, false
}
