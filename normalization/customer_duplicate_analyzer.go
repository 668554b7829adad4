package normalization

import (
	"sort"
	"strconv"
	"strings"

	"salesanalytics/internal/domain/repositories"
)

// CustomerMatchRule правило совпадения: записи связаны, если равны все три атрибута
type CustomerMatchRule struct {
	Name       string
	Attributes [3]string
}

// Атрибуты покупателя, участвующие в правилах
const (
	AttrName    = "name"
	AttrAddress = "address"
	AttrPhone   = "phone"
	AttrEmail   = "email"
)

// CustomerMatchRules правила в порядке применения
var CustomerMatchRules = []CustomerMatchRule{
	{Name: "name_address_phone", Attributes: [3]string{AttrName, AttrAddress, AttrPhone}},
	{Name: "name_address_email", Attributes: [3]string{AttrName, AttrAddress, AttrEmail}},
	{Name: "name_phone_email", Attributes: [3]string{AttrName, AttrPhone, AttrEmail}},
	{Name: "address_phone_email", Attributes: [3]string{AttrAddress, AttrPhone, AttrEmail}},
}

// CustomerDuplicateGroup компонента связности записей одного покупателя
type CustomerDuplicateGroup struct {
	IDs   []int64
	Rules []string // Правила, по которым найдены связи внутри группы
}

// CustomerResolution результат разрешения сущностей
type CustomerResolution struct {
	Customers       []repositories.CustomerRecord
	Groups          []CustomerDuplicateGroup // Только группы из двух и более записей
	ComponentCount  int                      // Число компонент связности, включая одиночные записи
	UniqueCustomers int                      // Результат последовательного исключения дублей
}

// CustomerDuplicateAnalyzer анализатор дублей покупателей
type CustomerDuplicateAnalyzer struct {
	rules []CustomerMatchRule
}

// NewCustomerDuplicateAnalyzer создает анализатор с правилами по умолчанию
func NewCustomerDuplicateAnalyzer() *CustomerDuplicateAnalyzer {
	return &CustomerDuplicateAnalyzer{rules: CustomerMatchRules}
}

// Resolve заполняет LinkedIDs и считает уникальных покупателей.
// Входной срез не изменяется.
func (cda *CustomerDuplicateAnalyzer) Resolve(customers []repositories.CustomerRecord) *CustomerResolution {
	resolved := cda.LinkDuplicates(customers)
	groups := cda.AnalyzeDuplicates(customers)
	return &CustomerResolution{
		Customers:       resolved,
		Groups:          groups,
		ComponentCount:  cda.CountComponents(customers),
		UniqueCustomers: cda.CountUniqueCustomers(customers),
	}
}

// LinkDuplicates возвращает копии записей, где LinkedIDs содержит id всех
// записей компоненты связности, кроме собственного, по возрастанию
func (cda *CustomerDuplicateAnalyzer) LinkDuplicates(customers []repositories.CustomerRecord) []repositories.CustomerRecord {
	uf := cda.buildComponents(customers)

	members := make(map[int][]int64)
	for i := range customers {
		root := uf.find(i)
		members[root] = append(members[root], customers[i].ID)
	}

	out := make([]repositories.CustomerRecord, len(customers))
	for i, c := range customers {
		linked := []int64{}
		seen := map[int64]bool{c.ID: true}
		for _, id := range members[uf.find(i)] {
			if seen[id] {
				continue
			}
			seen[id] = true
			linked = append(linked, id)
		}
		sort.Slice(linked, func(a, b int) bool { return linked[a] < linked[b] })
		c.LinkedIDs = linked
		out[i] = c
	}
	return out
}

// AnalyzeDuplicates возвращает группы дублей (компоненты из двух и более записей)
// в порядке первой записи группы
func (cda *CustomerDuplicateAnalyzer) AnalyzeDuplicates(customers []repositories.CustomerRecord) []CustomerDuplicateGroup {
	uf := newUnionFind(len(customers))
	rulesByRoot := make(map[int]map[string]bool)
	var pairs [][3]int

	// 1. Группируем по каждому правилу и объединяем записи группы
	for r, rule := range cda.rules {
		for _, idx := range cda.groupByRule(customers, rule) {
			for _, j := range idx[1:] {
				uf.union(idx[0], j)
				pairs = append(pairs, [3]int{idx[0], j, r})
			}
		}
	}

	// 2. Собираем правила, сработавшие внутри каждой компоненты
	for _, p := range pairs {
		root := uf.find(p[0])
		if rulesByRoot[root] == nil {
			rulesByRoot[root] = make(map[string]bool)
		}
		rulesByRoot[root][cda.rules[p[2]].Name] = true
	}

	// 3. Формируем группы в порядке появления
	order := []int{}
	ids := make(map[int][]int64)
	for i := range customers {
		root := uf.find(i)
		if _, ok := ids[root]; !ok {
			order = append(order, root)
		}
		ids[root] = append(ids[root], customers[i].ID)
	}

	groups := []CustomerDuplicateGroup{}
	for _, root := range order {
		if len(ids[root]) < 2 {
			continue
		}
		group := CustomerDuplicateGroup{IDs: ids[root]}
		for _, rule := range cda.rules {
			if rulesByRoot[root][rule.Name] {
				group.Rules = append(group.Rules, rule.Name)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// CountComponents число компонент связности, включая одиночные записи
func (cda *CustomerDuplicateAnalyzer) CountComponents(customers []repositories.CustomerRecord) int {
	uf := cda.buildComponents(customers)
	roots := make(map[int]bool)
	for i := range customers {
		roots[uf.find(i)] = true
	}
	return len(roots)
}

// CountUniqueCustomers последовательно исключает дубли по каждому правилу,
// оставляя первую запись, и возвращает размер оставшегося набора.
// Результат может отличаться от числа компонент связности.
func (cda *CustomerDuplicateAnalyzer) CountUniqueCustomers(customers []repositories.CustomerRecord) int {
	remaining := make([]repositories.CustomerRecord, len(customers))
	copy(remaining, customers)

	for _, rule := range cda.rules {
		seen := make(map[string]bool)
		kept := remaining[:0:0]
		for _, c := range remaining {
			key, ok := ruleKey(c, rule)
			if ok {
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			kept = append(kept, c)
		}
		remaining = kept
	}
	return len(remaining)
}

// groupByRule возвращает индексы записей с одинаковым ключом правила, группы из двух и более
func (cda *CustomerDuplicateAnalyzer) groupByRule(customers []repositories.CustomerRecord, rule CustomerMatchRule) [][]int {
	byKey := make(map[string][]int)
	order := []string{}
	for i, c := range customers {
		key, ok := ruleKey(c, rule)
		if !ok {
			continue
		}
		if _, exists := byKey[key]; !exists {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], i)
	}

	groups := [][]int{}
	for _, key := range order {
		if len(byKey[key]) > 1 {
			groups = append(groups, byKey[key])
		}
	}
	return groups
}

func (cda *CustomerDuplicateAnalyzer) buildComponents(customers []repositories.CustomerRecord) *unionFind {
	uf := newUnionFind(len(customers))
	for _, rule := range cda.rules {
		for _, idx := range cda.groupByRule(customers, rule) {
			for _, j := range idx[1:] {
				uf.union(idx[0], j)
			}
		}
	}
	return uf
}

// ruleKey ключ записи по правилу. Пустой атрибут никогда не совпадает.
func ruleKey(c repositories.CustomerRecord, rule CustomerMatchRule) (string, bool) {
	parts := make([]string, 0, len(rule.Attributes))
	for _, attr := range rule.Attributes {
		v := customerAttribute(c, attr)
		if v == "" {
			return "", false
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, "\x1f"), true
}

func customerAttribute(c repositories.CustomerRecord, attr string) string {
	switch attr {
	case AttrName:
		return c.Name
	case AttrAddress:
		return c.Address
	case AttrPhone:
		return c.Phone
	case AttrEmail:
		return c.Email
	}
	return ""
}

// FormatLinkedIDs форматирует связанные id для хранения: "2,5,9"
func FormatLinkedIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseLinkedIDs разбирает сохраненные связанные id. Некорректные элементы пропускаются.
func ParseLinkedIDs(s string) []int64 {
	ids := []int64{}
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}
