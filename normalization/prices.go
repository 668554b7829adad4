package normalization

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultEURToUSDRate фиксированный курс пересчета EUR в USD
const DefaultEURToUSDRate = 1.20

// PriceStep именованный шаг переписывания ценового токена
type PriceStep struct {
	Name    string
	Rewrite func(string) string
}

var (
	whitespacePattern     = regexp.MustCompile(`\s+`)
	trailingPeriodPattern = regexp.MustCompile(`\.$`)
	dollarCentsPattern    = regexp.MustCompile(`(\d+)\$(\d+)¢`)
	euroCentsPattern      = regexp.MustCompile(`(\d+)€(\d+)¢`)
	trailingDollarPattern = regexp.MustCompile(`(\d+\.?\d*)(\$)`)
	trailingEuroPattern   = regexp.MustCompile(`(\d+\.?\d*)(€)`)
	plainNumberPattern    = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// PriceSteps шаги в порядке применения. После них токен имеет вид [$|€]число.
var PriceSteps = []PriceStep{
	{Name: "strip_whitespace", Rewrite: func(s string) string {
		return whitespacePattern.ReplaceAllString(s, "")
	}},
	{Name: "currency_words", Rewrite: func(s string) string {
		s = strings.ReplaceAll(s, "USD", "$")
		return strings.ReplaceAll(s, "EUR", "€")
	}},
	{Name: "drop_trailing_period", Rewrite: func(s string) string {
		return trailingPeriodPattern.ReplaceAllString(s, "")
	}},
	{Name: "fold_cents_compound", Rewrite: func(s string) string {
		s = dollarCentsPattern.ReplaceAllString(s, "$$${1}.${2}")
		return euroCentsPattern.ReplaceAllString(s, "€${1}.${2}")
	}},
	{Name: "cents_to_decimal", Rewrite: func(s string) string {
		return strings.ReplaceAll(s, "¢", ".")
	}},
	{Name: "symbol_first", Rewrite: func(s string) string {
		s = trailingDollarPattern.ReplaceAllString(s, "${2}${1}")
		return trailingEuroPattern.ReplaceAllString(s, "${2}${1}")
	}},
}

// PriceNormalizer приводит ценовые токены к USD с точностью до центов
type PriceNormalizer struct {
	eurRate float64
}

// NewPriceNormalizer создает нормализатор цен. Неположительный курс заменяется курсом по умолчанию.
func NewPriceNormalizer(eurRate float64) *PriceNormalizer {
	if eurRate <= 0 {
		eurRate = DefaultEURToUSDRate
	}
	return &PriceNormalizer{eurRate: eurRate}
}

// RewriteToken прогоняет токен через все шаги переписывания
func RewriteToken(raw string) string {
	s := raw
	for _, step := range PriceSteps {
		s = step.Rewrite(s)
	}
	return s
}

// Normalize возвращает сумму в USD, округленную до 2 знаков.
// Значение, не прошедшее числовое приведение, отсутствует (false), а не ноль.
func (pn *PriceNormalizer) Normalize(v any) (float64, bool) {
	raw, ok := AsString(v)
	if !ok {
		return 0, false
	}

	token := RewriteToken(raw)
	isEUR := strings.HasPrefix(token, "€")
	token = strings.NewReplacer("$", "", "€", "").Replace(token)

	if !plainNumberPattern.MatchString(token) {
		return 0, false
	}
	amount, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, false
	}

	if isEUR {
		amount *= pn.eurRate
	}
	return roundCents(amount), true
}

// Column колоночная форма: float64 или nil
func (pn *PriceNormalizer) Column(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if amount, ok := pn.Normalize(v); ok {
			out[i] = amount
		}
	}
	return out
}

// NormalizePrice нормализует цену по курсу по умолчанию
func NormalizePrice(v any) (float64, bool) {
	return NewPriceNormalizer(DefaultEURToUSDRate).Normalize(v)
}

// NormalizePrices колоночная форма NormalizePrice
func NormalizePrices(values []any) []any {
	return NewPriceNormalizer(DefaultEURToUSDRate).Column(values)
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
