package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

// orderRow строка orders.parquet
type orderRow struct {
	UserID    int64  `parquet:"user_id"`
	BookID    int64  `parquet:"book_id"`
	Quantity  int64  `parquet:"quantity"`
	UnitPrice string `parquet:"unit_price,optional"`
	Timestamp string `parquet:"timestamp,optional"`
}

type customer struct {
	ID      int64
	Name    string
	Address string
	Phone   string
	Email   string
}

type sizes struct {
	books, users, orders int
}

var (
	plainKeyPattern = regexp.MustCompile(`(?m)^(\s*-?\s*)(\w+):`)

	cyrillicNames = []string{"Иван Петров", "Анна Смирнова", "Олег Кузнецов", "Мария Соколова", "Павел Орлов"}
	publishers    = []string{"Penguin", "Vintage", "Tor", "Orbit", "HarperCollins"}
)

func main() {
	outDir := flag.String("out", "data", "Каталог для файлов источников")
	sourcesFlag := flag.String("sources", "DATA1,DATA2,DATA3", "Источники через запятую")
	books := flag.Int("books", 200, "Книг на источник")
	users := flag.Int("users", 300, "Покупателей на источник")
	orders := flag.Int("orders", 2000, "Заказов на источник")
	seed := flag.Int64("seed", 42, "Seed генератора")
	flag.Parse()

	sz := sizes{books: *books, users: *users, orders: *orders}
	for i, source := range strings.Split(*sourcesFlag, ",") {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		faker := gofakeit.New(*seed + int64(i))
		dir := filepath.Join(*outDir, source)
		// Источники различаются форматами файлов так же, как реальные выгрузки
		if err := generateSource(faker, dir, sz, i); err != nil {
			log.Fatalf("Ошибка генерации %s: %v", source, err)
		}
		log.Printf("✓ %s: %d книг, %d покупателей, %d заказов", dir, sz.books, sz.users, sz.orders)
	}
}

func generateSource(f *gofakeit.Faker, dir string, sz sizes, variant int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	booksYAML, err := generateBooks(f, sz.books)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "books.yaml"), booksYAML, 0o644); err != nil {
		return err
	}

	customers := generateCustomers(f, sz.users)
	usersCSV, err := encodeUsers(customers, variant%3 == 1)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "users.csv"), usersCSV, 0o644); err != nil {
		return err
	}

	rows := generateOrders(f, sz.orders, int64(len(customers)), int64(sz.books))
	if variant%3 == 2 {
		return writeOrdersExcel(filepath.Join(dir, "orders.xlsx"), rows)
	}
	return writeOrdersParquet(filepath.Join(dir, "orders.parquet"), rows)
}

// generateBooks каталог с ключами-символами, "NULL" издателями и соавторами в разном порядке
func generateBooks(f *gofakeit.Faker, n int) ([]byte, error) {
	authors := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		authors = append(authors, f.BookAuthor())
	}

	items := make([]map[string]any, 0, n)
	for id := 1; id <= n; id++ {
		author := f.RandomString(authors)
		if f.Number(1, 5) == 1 {
			co := f.RandomString(authors)
			if co != author {
				author = author + ", " + co
			}
		}
		if f.Bool() {
			author = strings.ReplaceAll(author, " ", "  ")
		}

		title := f.BookTitle()
		if f.Number(1, 6) == 1 {
			title = fmt.Sprintf("'%s'", title)
		}

		var publisher any = f.RandomString(publishers)
		switch f.Number(1, 10) {
		case 1:
			publisher = "NULL"
		case 2:
			publisher = nil
		}

		var year any = f.Number(1900, 2024)
		if f.Number(1, 8) == 1 {
			year = strconv.Itoa(year.(int)) + " г."
		}

		items = append(items, map[string]any{
			"id":        id,
			"title":     title,
			"author":    author,
			"genre":     f.BookGenre(),
			"publisher": publisher,
			"year":      year,
		})
	}

	data, err := yaml.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode books: %w", err)
	}
	return plainKeyPattern.ReplaceAll(data, []byte("${1}:${2}:")), nil
}

// generateCustomers покупатели, часть которых повторяется с измененным атрибутом
func generateCustomers(f *gofakeit.Faker, n int) []customer {
	customers := make([]customer, 0, n)
	for id := int64(1); int(id) <= n; id++ {
		if len(customers) > 0 && f.Number(1, 6) == 1 {
			dup := customers[f.Number(0, len(customers)-1)]
			dup.ID = id
			// Меняем ровно один атрибут, остальные три совпадают
			switch f.Number(1, 4) {
			case 1:
				dup.Email = f.Email()
			case 2:
				dup.Phone = messyPhone(f)
			case 3:
				dup.Address = f.Street()
			default:
				dup.Name = f.Name()
			}
			customers = append(customers, dup)
			continue
		}

		name := f.Name()
		if f.Number(1, 8) == 1 {
			name = f.RandomString(cyrillicNames)
		}
		customers = append(customers, customer{
			ID:      id,
			Name:    name,
			Address: f.Street(),
			Phone:   messyPhone(f),
			Email:   f.Email(),
		})
	}
	return customers
}

func messyPhone(f *gofakeit.Faker) string {
	switch f.Number(1, 4) {
	case 1:
		return f.Numerify("(###) ###-####")
	case 2:
		return f.Numerify("###.###.####")
	case 3:
		return f.Numerify("### ### ####")
	}
	return f.Numerify("###-###-####")
}

func encodeUsers(customers []customer, windows1251 bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "name", "address", "phone", "email"}); err != nil {
		return nil, err
	}
	for _, c := range customers {
		if err := w.Write([]string{strconv.FormatInt(c.ID, 10), c.Name, c.Address, c.Phone, c.Email}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	if !windows1251 {
		return buf.Bytes(), nil
	}
	encoded, err := charmap.Windows1251.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to encode Windows-1251: %w", err)
	}
	return encoded, nil
}

// generateOrders заказы с ценами и датами в разных форматах
func generateOrders(f *gofakeit.Faker, n int, users, books int64) []orderRow {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := make([]orderRow, 0, n)
	for i := 0; i < n; i++ {
		price := f.Price(3, 60)
		dollars, cents := int(price), int(price*100)%100
		var unitPrice string
		switch f.Number(1, 6) {
		case 1:
			unitPrice = fmt.Sprintf("$%.2f", price)
		case 2:
			unitPrice = fmt.Sprintf("€%.2f", price)
		case 3:
			unitPrice = fmt.Sprintf("%.2fUSD", price)
		case 4:
			unitPrice = fmt.Sprintf("%.2f EUR", price)
		case 5:
			unitPrice = fmt.Sprintf("%d$%02d¢", dollars, cents)
		default:
			unitPrice = fmt.Sprintf("%d€%02d", dollars, cents)
		}
		if f.Number(1, 50) == 1 {
			unitPrice = "n/a"
		}

		date := f.DateRange(start, end)
		var timestamp string
		switch f.Number(1, 5) {
		case 1:
			timestamp = date.Format("2006-01-02 15:04:05")
		case 2:
			timestamp = date.Format("01/02/06")
		case 3:
			timestamp = date.Format("02.01.2006")
		case 4:
			timestamp = date.Format("2-Jan-2006")
		default:
			timestamp = date.Format("2006-01-02")
		}
		if f.Number(1, 40) == 1 {
			timestamp = ""
		}

		rows = append(rows, orderRow{
			UserID:    int64(f.Number(1, int(users))),
			BookID:    int64(f.Number(1, int(books))),
			Quantity:  int64(f.Number(1, 5)),
			UnitPrice: unitPrice,
			Timestamp: timestamp,
		})
	}
	return rows
}

func writeOrdersParquet(path string, rows []orderRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := parquet.NewGenericWriter[orderRow](file)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	return w.Close()
}

func writeOrdersExcel(path string, rows []orderRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	header := []any{"user_id", "book_id", "quantity", "unit_price", "timestamp"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{r.UserID, r.BookID, r.Quantity, r.UnitPrice, r.Timestamp}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
