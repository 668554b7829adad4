package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"salesanalytics/internal/domain/repositories"
)

const parquetReadBatch = 256

// ParseParquetFile читает плоский parquet файл. Имена колонок берутся из путей листьев схемы.
func ParseParquetFile(path string) (*repositories.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ParseParquet(f, info.Size())
}

// ParseParquet читает плоский parquet из произвольного ReaderAt
func ParseParquet(r io.ReaderAt, size int64) (*repositories.RawTable, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	table := &repositories.RawTable{}
	for _, path := range pf.Schema().Columns() {
		table.Columns = append(table.Columns, strings.Join(path, "."))
	}

	buf := make([]parquet.Row, parquetReadBatch)
	for _, rowGroup := range pf.RowGroups() {
		if err := readRowGroup(rowGroup, table, buf); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func readRowGroup(rowGroup parquet.RowGroup, table *repositories.RawTable, buf []parquet.Row) error {
	rows := rowGroup.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			record := make(repositories.RawRecord, len(table.Columns))
			for _, col := range table.Columns {
				record[col] = nil
			}
			for _, v := range row {
				idx := v.Column()
				if idx < 0 || idx >= len(table.Columns) {
					continue
				}
				record[table.Columns[idx]] = parquetValue(v)
			}
			table.Records = append(table.Records, record)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
}

// parquetValue приводит значение parquet к скаляру RawRecord
func parquetValue(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	}
	return v.String()
}
