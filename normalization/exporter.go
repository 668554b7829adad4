package normalization

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"salesanalytics/internal/domain/repositories"
)

// ExportFormat формат экспорта
type ExportFormat string

const (
	FormatJSON  ExportFormat = "json"
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrTableRequired     = errors.New("csv export requires a single table")
)

// ParseExportFormat разбирает формат экспорта, xlsx считается синонимом excel
func ParseExportFormat(s string) (ExportFormat, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// ContentType MIME тип формата
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json; charset=utf-8"
}

// Extension расширение файла формата
func (f ExportFormat) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

// exportSheet табличное представление одной нормализованной таблицы
type exportSheet struct {
	name    string
	headers []string
	rows    [][]any
}

// Exporter экспортер нормализованных таблиц источника
type Exporter struct {
	repo repositories.ExportRepository
}

// NewExporter создает новый экспортер
func NewExporter(repo repositories.ExportRepository) *Exporter {
	return &Exporter{repo: repo}
}

// Export пишет таблицы источника в w. Пустое имя таблицы означает все три таблицы.
func (e *Exporter) Export(ctx context.Context, w io.Writer, source, table string, format ExportFormat) error {
	if format == FormatCSV && table == "" {
		return ErrTableRequired
	}

	sheets, err := e.fetchSheets(ctx, source, table)
	if err != nil {
		return fmt.Errorf("failed to fetch tables: %w", err)
	}

	switch format {
	case FormatJSON:
		return e.exportJSON(w, source, sheets)
	case FormatCSV:
		return e.exportCSV(w, sheets[0])
	case FormatExcel:
		return e.exportExcel(w, sheets)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

func (e *Exporter) fetchSheets(ctx context.Context, source, table string) ([]exportSheet, error) {
	tables := []string{repositories.TableBooks, repositories.TableCustomers, repositories.TableOrders}
	if table != "" {
		tables = []string{table}
	}

	sheets := make([]exportSheet, 0, len(tables))
	for _, name := range tables {
		var sheet exportSheet
		switch name {
		case repositories.TableBooks:
			books, err := e.repo.ListBooks(ctx, source)
			if err != nil {
				return nil, err
			}
			sheet = booksSheet(books)
		case repositories.TableCustomers:
			customers, err := e.repo.ListCustomers(ctx, source)
			if err != nil {
				return nil, err
			}
			sheet = customersSheet(customers)
		case repositories.TableOrders:
			orders, err := e.repo.ListOrders(ctx, source)
			if err != nil {
				return nil, err
			}
			sheet = ordersSheet(orders)
		default:
			return nil, fmt.Errorf("%w: %s", repositories.ErrUnknownTable, name)
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

func (e *Exporter) exportJSON(w io.Writer, source string, sheets []exportSheet) error {
	tables := make(map[string][]map[string]any, len(sheets))
	for _, sheet := range sheets {
		rows := make([]map[string]any, 0, len(sheet.rows))
		for _, row := range sheet.rows {
			obj := make(map[string]any, len(sheet.headers))
			for i, h := range sheet.headers {
				obj[h] = row[i]
			}
			rows = append(rows, obj)
		}
		tables[sheet.name] = rows
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	result := map[string]any{
		"exported_at": time.Now().Format(time.RFC3339),
		"source":      source,
		"tables":      tables,
	}
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func (e *Exporter) exportCSV(w io.Writer, sheet exportSheet) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(sheet.headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, row := range sheet.rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = cellString(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (e *Exporter) exportExcel(w io.Writer, sheets []exportSheet) error {
	f := excelize.NewFile()
	defer f.Close()

	// Стиль заголовков
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheets {
		index, err := f.NewSheet(sheet.name)
		if err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}

		for col, header := range sheet.headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sheet.name, cell, header)
			f.SetCellStyle(sheet.name, cell, cell, headerStyle)
		}

		for rowIdx, row := range sheet.rows {
			for col, v := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
				if v == nil {
					continue
				}
				f.SetCellValue(sheet.name, cell, v)
			}
		}

		for col := range sheet.headers {
			name, _ := excelize.ColumnNumberToName(col + 1)
			f.SetColWidth(sheet.name, name, name, 15)
		}
	}

	// Лист по умолчанию не нужен
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func booksSheet(books []repositories.BookRecord) exportSheet {
	sheet := exportSheet{
		name:    repositories.TableBooks,
		headers: []string{"id", "title", "author", "genre", "publisher", "year", "source"},
	}
	for _, b := range books {
		sheet.rows = append(sheet.rows, []any{b.ID, b.Title, b.Author, b.Genre, b.Publisher, b.Year, b.Source})
	}
	return sheet
}

func customersSheet(customers []repositories.CustomerRecord) exportSheet {
	sheet := exportSheet{
		name:    repositories.TableCustomers,
		headers: []string{"id", "name", "address", "phone", "email", "linked_ids", "source"},
	}
	for _, c := range customers {
		sheet.rows = append(sheet.rows, []any{c.ID, c.Name, c.Address, c.Phone, c.Email, FormatLinkedIDs(c.LinkedIDs), c.Source})
	}
	return sheet
}

func ordersSheet(orders []repositories.OrderRecord) exportSheet {
	sheet := exportSheet{
		name: repositories.TableOrders,
		headers: []string{"customer_id", "book_id", "quantity", "unit_price", "total",
			"date", "shipping_method", "source", "currency_code"},
	}
	for _, o := range orders {
		var unitPrice, total, date, shipping any
		if o.UnitPrice != nil {
			unitPrice = *o.UnitPrice
		}
		if o.Total != nil {
			total = *o.Total
		}
		if o.Date != nil {
			date = o.Date.Format("2006-01-02")
		}
		if o.ShippingMethod != nil {
			shipping = *o.ShippingMethod
		}
		sheet.rows = append(sheet.rows, []any{o.CustomerID, o.BookID, o.Quantity, unitPrice, total,
			date, shipping, o.Source, o.CurrencyCode})
	}
	return sheet
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', 2, 64)
	}
	s, _ := AsString(v)
	return s
}
