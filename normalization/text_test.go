package normalization

import (
	"testing"
)

// TestCleanTitle проверяет очистку названий
func TestCleanTitle(t *testing.T) {
	tests := map[string]string{
		"The 'Great' Gatsby":    "The Great Gatsby",
		"Harry''s Adventure":    "Harry's Adventure",
		"War – Peace":           "War - Peace",
		"'Книга'":               "Книга",
		"It's 'two words' here": "It's 'two words' here",
		"":                      "",
	}
	for input, want := range tests {
		if got := CleanTitle(input); got != want {
			t.Errorf("CleanTitle(%q) = %q, want %q", input, got, want)
		}
	}
}

// TestNormalizeAuthor проверяет схлопывание пробелов
func TestNormalizeAuthor(t *testing.T) {
	tests := map[string]string{
		"  Jane   Austen ":     "Jane Austen",
		"A. Smith,\tB.  Jones": "A. Smith, B. Jones",
		"Tolstoy":              "Tolstoy",
	}
	for input, want := range tests {
		if got := NormalizeAuthor(input); got != want {
			t.Errorf("NormalizeAuthor(%q) = %q, want %q", input, got, want)
		}
	}
}

// TestStandardizePhone проверяет приведение разделителей телефона
func TestStandardizePhone(t *testing.T) {
	tests := map[string]string{
		"(555) 123.4567":  "555-123-4567",
		"555.123.4567":    "555-123-4567",
		"555 123 4567":    "555-123-4567",
		"555-123-4567":    "555-123-4567",
		"(555)  123-4567": "555-123-4567",
	}
	for input, want := range tests {
		if got := StandardizePhone(input); got != want {
			t.Errorf("StandardizePhone(%q) = %q, want %q", input, got, want)
		}
	}
}

// TestCleanPublishers проверяет подстановку моды
func TestCleanPublishers(t *testing.T) {
	t.Run("mode replaces placeholders", func(t *testing.T) {
		got := CleanPublishers([]any{"Penguin", "", "NULL", "Orbit", "Penguin", nil, " "})
		want := []any{"Penguin", "Penguin", "Penguin", "Orbit", "Penguin", "Penguin", "Penguin"}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("tie broken by first encountered", func(t *testing.T) {
		got := CleanPublishers([]any{"Orbit", "Penguin", "Penguin", "Orbit", ""})
		if got[4] != "Orbit" {
			t.Errorf("Expected Orbit, got %v", got[4])
		}
	})

	t.Run("no values gives Unknown", func(t *testing.T) {
		got := CleanPublishers([]any{"", nil, "NULL"})
		for i, v := range got {
			if v != UnknownPublisher {
				t.Errorf("index %d: got %v, want %s", i, v, UnknownPublisher)
			}
		}
	})
}

// TestNormalizeYears проверяет замену некорректных годов медианой
func TestNormalizeYears(t *testing.T) {
	t.Run("median includes zeros", func(t *testing.T) {
		// Числовые значения: 2000, 0, 2010 -> медиана 2000
		got := NormalizeYears([]any{"2000", 0, "abc", 2010.0, nil})
		want := []any{2000, 2000, 2000, 2010, 2000}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("even count averages and truncates", func(t *testing.T) {
		got := NormalizeYears([]any{1999, 2002, "x"})
		if got[2] != 2000 {
			t.Errorf("Expected median 2000, got %v", got[2])
		}
	})

	t.Run("no numeric years keeps zero", func(t *testing.T) {
		got := NormalizeYears([]any{"x", nil})
		if got[0] != 0 || got[1] != 0 {
			t.Errorf("Expected zeros, got %v", got)
		}
	})
}
