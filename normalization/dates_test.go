package normalization

import (
	"testing"
	"time"
)

// TestParseDate проверяет все форматы дат и приоритет форматов
func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // пусто, если дата отсутствует
	}{
		{"ISO", "2024-03-15", "2024-03-15"},
		{"ISO внутри текста", "ordered at 2024-03-15 10:00", "2024-03-15"},
		{"US с двузначным годом", "03/15/24", "2024-03-15"},
		{"европейский", "5.03.2024", "2024-03-05"},
		{"европейский с двузначным днем", "15.03.2024", "2024-03-15"},
		{"месяц сокращенно", "5-Mar-2024", "2024-03-05"},
		{"месяц полностью", "15-march-2024", "2024-03-15"},
		{"месяц в верхнем регистре", "1-DECEMBER-2023", "2023-12-01"},
		{"неизвестный месяц", "5-Foo-2024", ""},
		{"несуществующая дата ISO", "2024-02-30", ""},
		{"несуществующий месяц US", "13/01/24", ""},
		{"мусор", "garbage", ""},
		{"пустая строка", "", ""},
		// ISO выигрывает, даже если строка содержит и другой формат
		{"приоритет ISO", "2024-01-02 or 03/04/25", "2024-01-02"},
		// Выигравший формат с некорректной датой не уступает следующим
		{"без отката к следующему формату", "2024-13-01 5.03.2024", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if tt.want == "" {
				if ok {
					t.Errorf("ParseDate(%q) = %v, want absent", tt.input, got)
				}
				return
			}
			if !ok {
				t.Fatalf("ParseDate(%q) returned absent, want %s", tt.input, tt.want)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

// TestExtractDates проверяет колоночную форму
func TestExtractDates(t *testing.T) {
	input := []any{"2024-03-15", nil, "bad", time.Date(2023, 1, 2, 15, 4, 5, 0, time.UTC)}
	got := ExtractDates(input)

	if len(got) != len(input) {
		t.Fatalf("Expected %d values, got %d", len(input), len(got))
	}
	if d, ok := got[0].(time.Time); !ok || d.Format("2006-01-02") != "2024-03-15" {
		t.Errorf("Expected 2024-03-15, got %v", got[0])
	}
	if got[1] != nil || got[2] != nil {
		t.Errorf("Expected nil for missing and malformed values, got %v, %v", got[1], got[2])
	}
	if d, ok := got[3].(time.Time); !ok || d.Hour() != 0 || d.Day() != 2 {
		t.Errorf("Expected time to be truncated to date, got %v", got[3])
	}
}
