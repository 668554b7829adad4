package importer

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"salesanalytics/internal/domain/repositories"
)

// symbolKeyPattern ключи в стиле Ruby-символов (":title:") переписываются в обычные ("title:")
var symbolKeyPattern = regexp.MustCompile(`:(\w+):`)

// ParseBooksYAML разбирает список документов каталога книг.
// Порядок колонок определяется порядком первого появления ключей.
func ParseBooksYAML(data []byte) (*repositories.RawTable, error) {
	content := symbolKeyPattern.ReplaceAll(data, []byte("${1}:"))

	var items []map[string]any
	if err := yaml.Unmarshal(content, &items); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	table := &repositories.RawTable{}
	seen := make(map[string]bool)

	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err == nil {
		for _, key := range documentKeys(&node) {
			if !seen[key] {
				seen[key] = true
				table.Columns = append(table.Columns, key)
			}
		}
	}

	for _, item := range items {
		if item == nil {
			continue
		}
		record := make(repositories.RawRecord, len(item))
		for k, v := range item {
			record[k] = v
			if !seen[k] {
				seen[k] = true
				table.Columns = append(table.Columns, k)
			}
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}

// documentKeys ключи отображений верхнего уровня последовательности в порядке появления
func documentKeys(node *yaml.Node) []string {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.SequenceNode {
		return nil
	}
	keys := []string{}
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		for i := 0; i+1 < len(item.Content); i += 2 {
			keys = append(keys, item.Content[i].Value)
		}
	}
	return keys
}
