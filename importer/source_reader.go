package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"salesanalytics/internal/domain/repositories"
)

// tableFiles варианты файлов таблицы в порядке предпочтения
var tableFiles = map[string][]string{
	repositories.TableBooks:     {"books.yaml", "books.yml"},
	repositories.TableCustomers: {"users.csv", "users.xlsx"},
	repositories.TableOrders:    {"orders.parquet", "orders.xlsx"},
}

// FileSourceReader читает таблицы источников из каталога вида <dataDir>/<source>/<file>
type FileSourceReader struct {
	dataDir string
	sources map[string]bool
}

// NewFileSourceReader создает читатель для заданного набора источников
func NewFileSourceReader(dataDir string, sources []string) *FileSourceReader {
	allowed := make(map[string]bool, len(sources))
	for _, s := range sources {
		allowed[s] = true
	}
	return &FileSourceReader{dataDir: dataDir, sources: allowed}
}

// ReadTable читает сырую таблицу источника
func (r *FileSourceReader) ReadTable(ctx context.Context, source, table string) (*repositories.RawTable, error) {
	if !r.sources[source] {
		return nil, fmt.Errorf("%w: %s", repositories.ErrUnknownSource, source)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, ok := tableFiles[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrUnknownTable, table)
	}

	path, err := r.locate(source, candidates)
	if err != nil {
		return nil, err
	}

	raw, err := parseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repositories.ErrSourceUnavailable, path, err)
	}
	return raw, nil
}

// TablePath путь к найденному файлу таблицы
func (r *FileSourceReader) TablePath(source, table string) (string, error) {
	candidates, ok := tableFiles[table]
	if !ok {
		return "", fmt.Errorf("%w: %s", repositories.ErrUnknownTable, table)
	}
	return r.locate(source, candidates)
}

func (r *FileSourceReader) locate(source string, candidates []string) (string, error) {
	for _, name := range candidates {
		path := filepath.Join(r.dataDir, source, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %v", repositories.ErrSourceUnavailable, path, err)
		}
	}
	return "", fmt.Errorf("%w: %s has none of %s", repositories.ErrSourceUnavailable,
		filepath.Join(r.dataDir, source), strings.Join(candidates, ", "))
}

func parseFile(path string) (*repositories.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ParseBooksYAML(data)
	case ".csv":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ParseDelimited(data)
	case ".parquet":
		return ParseParquetFile(path)
	case ".xlsx":
		return ParseSpreadsheet(path)
	}
	return nil, fmt.Errorf("unsupported file type: %s", path)
}
