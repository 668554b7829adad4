package normalization

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout распознаваемый формат даты в свободном тексте
type DateLayout struct {
	Name    string
	Pattern *regexp.Regexp
	parse   func(match string) (year, month, day int, ok bool)
}

var (
	isoDatePattern       = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	usDatePattern        = regexp.MustCompile(`\d{2}/\d{2}/\d{2}`)
	europeanDatePattern  = regexp.MustCompile(`\d+\.\d{2}\.\d{4}`)
	textMonthPattern     = regexp.MustCompile(`\d+-\w+-\d+`)
	textMonthPartPattern = regexp.MustCompile(`(\d+)-(\w+)-(\d{4})`)
)

// monthNumbers полные и трехбуквенные названия месяцев
var monthNumbers = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// DateLayouts форматы в порядке приоритета: ISO, US, европейский, с названием месяца.
// Побеждает первый формат, нашедший подстроку, даже если дата из него некорректна.
var DateLayouts = []DateLayout{
	{Name: "iso", Pattern: isoDatePattern, parse: parseISODate},
	{Name: "us", Pattern: usDatePattern, parse: parseUSDate},
	{Name: "european", Pattern: europeanDatePattern, parse: parseEuropeanDate},
	{Name: "text_month", Pattern: textMonthPattern, parse: parseTextMonthDate},
}

// ParseDate извлекает календарную дату из строки.
// Возвращает false, если ни один формат не подошел или дата не существует.
func ParseDate(raw string) (time.Time, bool) {
	for _, layout := range DateLayouts {
		match := layout.Pattern.FindString(raw)
		if match == "" {
			continue
		}
		year, month, day, ok := layout.parse(match)
		if !ok {
			return time.Time{}, false
		}
		return calendarDate(year, month, day)
	}
	return time.Time{}, false
}

// ExtractDates колоночная форма ParseDate: time.Time или nil
func ExtractDates(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case time.Time:
			out[i] = time.Date(val.Year(), val.Month(), val.Day(), 0, 0, 0, 0, time.UTC)
			continue
		case *time.Time:
			if val != nil {
				out[i] = time.Date(val.Year(), val.Month(), val.Day(), 0, 0, 0, 0, time.UTC)
			}
			continue
		}
		s, ok := AsString(v)
		if !ok {
			continue
		}
		if d, ok := ParseDate(s); ok {
			out[i] = d
		}
	}
	return out
}

func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date нормализует 31 февраля в март
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func parseISODate(match string) (int, int, int, bool) {
	return atoi3(match[0:4], match[5:7], match[8:10])
}

// parseUSDate MM/DD/YY, год дополняется префиксом 20
func parseUSDate(match string) (int, int, int, bool) {
	parts := strings.Split(match, "/")
	return atoi3("20"+parts[2], parts[0], parts[1])
}

func parseEuropeanDate(match string) (int, int, int, bool) {
	parts := strings.Split(match, ".")
	return atoi3(parts[2], parts[1], parts[0])
}

func parseTextMonthDate(match string) (int, int, int, bool) {
	groups := textMonthPartPattern.FindStringSubmatch(match)
	if groups == nil {
		return 0, 0, 0, false
	}
	month, ok := monthNumbers[strings.ToLower(groups[2])]
	if !ok {
		return 0, 0, 0, false
	}
	year, err := strconv.Atoi(groups[3])
	if err != nil {
		return 0, 0, 0, false
	}
	day, err := strconv.Atoi(groups[1])
	if err != nil {
		return 0, 0, 0, false
	}
	return year, month, day, true
}

func atoi3(y, m, d string) (int, int, int, bool) {
	year, err := strconv.Atoi(y)
	if err != nil {
		return 0, 0, 0, false
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return 0, 0, 0, false
	}
	day, err := strconv.Atoi(d)
	if err != nil {
		return 0, 0, 0, false
	}
	return year, month, day, true
}
