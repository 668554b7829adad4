package normalization

import (
	"sort"
	"strconv"
	"strings"
)

// AuthorSeparator разделитель соавторов в исходных данных
const AuthorSeparator = ", "

// AuthorSetKey канонический ключ набора авторов: токены сортируются,
// поэтому порядок соавторов не влияет на ключ. Нестроковое значение дает пустой набор.
func AuthorSetKey(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	tokens := strings.Split(s, AuthorSeparator)
	sort.Strings(tokens)
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = strconv.Quote(t)
	}
	return "(" + strings.Join(quoted, ",") + ")"
}

// CountAuthorCombinations считает различные наборы авторов
func CountAuthorCombinations(values []any) int {
	sets := make(map[string]struct{})
	for _, v := range values {
		sets[AuthorSetKey(v)] = struct{}{}
	}
	return len(sets)
}
