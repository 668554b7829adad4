package normalization

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// UnknownPublisher подстановка, когда у источника нет ни одного издателя
const UnknownPublisher = "Unknown"

var (
	quotedWordPattern    = regexp.MustCompile(`'([\p{L}\p{N}_]+)'`)
	phoneSeparators      = strings.NewReplacer(")", "-", ".", "-", "+", "-")
	phoneParenRemnant    = regexp.MustCompile(`\((\d+)--`)
	publisherPlaceholder = map[string]bool{"": true, "NULL": true}
)

// CleanTitle снимает одинарные кавычки вокруг отдельных слов,
// схлопывает двойной апостроф и заменяет длинное тире на дефис
func CleanTitle(title string) string {
	title = quotedWordPattern.ReplaceAllString(title, "${1}")
	title = strings.ReplaceAll(title, "''", "'")
	return strings.ReplaceAll(title, "–", "-")
}

// NormalizeAuthor схлопывает пробельные последовательности и обрезает края
func NormalizeAuthor(author string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(author, " "))
}

// StandardizePhone приводит разделители телефона к дефисам: (555) 123.4567 -> 555-123-4567
func StandardizePhone(phone string) string {
	phone = phoneSeparators.Replace(phone)
	phone = whitespacePattern.ReplaceAllString(phone, "-")
	return phoneParenRemnant.ReplaceAllString(phone, "${1}-")
}

// CleanTitles колоночная форма CleanTitle. Нестроковые значения не меняются.
func CleanTitles(values []any) []any {
	return mapStrings(values, CleanTitle)
}

// NormalizeAuthors колоночная форма NormalizeAuthor
func NormalizeAuthors(values []any) []any {
	return mapStrings(values, NormalizeAuthor)
}

// StandardizePhones колоночная форма StandardizePhone
func StandardizePhones(values []any) []any {
	return mapStrings(values, StandardizePhone)
}

// CleanPublishers заменяет пустые значения и "NULL" модой остальных значений колонки.
// При равенстве частот выбирается встреченное первым, без значений подставляется "Unknown".
func CleanPublishers(values []any) []any {
	replacement := publisherMode(values)
	out := make([]any, len(values))
	for i, v := range values {
		if isPublisherPlaceholder(v) {
			out[i] = replacement
			continue
		}
		out[i] = v
	}
	return out
}

func isPublisherPlaceholder(v any) bool {
	s, ok := AsString(v)
	if !ok {
		return true
	}
	return publisherPlaceholder[strings.TrimSpace(s)]
}

func publisherMode(values []any) string {
	counts := make(map[string]int)
	order := []string{}
	for _, v := range values {
		if isPublisherPlaceholder(v) {
			continue
		}
		s, _ := AsString(v)
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}

	mode, best := UnknownPublisher, 0
	for _, s := range order {
		if counts[s] > best {
			mode, best = s, counts[s]
		}
	}
	return mode
}

// NormalizeYears приводит годы к целым. Нечисловые и нулевые значения
// заменяются медианой числовых значений колонки (нули в медиане участвуют).
func NormalizeYears(values []any) []any {
	years := make([]float64, len(values))
	valid := []float64{}
	for i, v := range values {
		y, ok := coerceYear(v)
		if !ok {
			years[i] = math.NaN()
			continue
		}
		years[i] = y
		valid = append(valid, y)
	}

	median := 0
	if len(valid) > 0 {
		median = int(medianOf(valid))
	}

	out := make([]any, len(values))
	for i, y := range years {
		year := median
		if !math.IsNaN(y) {
			year = int(y)
		}
		if year == 0 {
			year = median
		}
		out[i] = year
	}
	return out
}

func coerceYear(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	s, _ := AsString(v)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func mapStrings(values []any, fn func(string) string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[i] = fn(s)
			continue
		}
		out[i] = v
	}
	return out
}
