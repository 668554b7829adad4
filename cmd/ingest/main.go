package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mattn/go-runewidth"

	"salesanalytics/internal/config"
	"salesanalytics/internal/container"
	analyticsdomain "salesanalytics/internal/domain/analytics"
	"salesanalytics/normalization"
	"salesanalytics/server"
)

func main() {
	source := flag.String("source", "", "Источник для обработки (по умолчанию все)")
	exportFormat := flag.String("export", "", "Выгрузить таблицы источника: json, csv, excel")
	table := flag.String("table", "", "Таблица для выгрузки: books, customers, orders")
	out := flag.String("out", "", "Файл выгрузки (по умолчанию stdout)")
	flag.Parse()

	if err := run(*source, *exportFormat, *table, *out); err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(1)
	}
}

func run(source, exportFormat, table, out string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Логи в stderr, чтобы не смешивать их с выгрузкой в stdout
	logger := server.NewLoggerTo(os.Stderr, cfg.LogLevel)

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Initialize(); err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if exportFormat != "" {
		if source == "" {
			return errors.New("-export requires -source")
		}
		format, err := normalization.ParseExportFormat(exportFormat)
		if err != nil {
			return err
		}
		return export(ctx, c.AnalyticsService, source, table, format, out)
	}

	var dashboards []analyticsdomain.SourceDashboard
	if source != "" {
		dm, err := c.AnalyticsService.GetMetrics(ctx, source)
		if err != nil {
			return err
		}
		dashboards = []analyticsdomain.SourceDashboard{{Source: source, Metrics: dm}}
	} else {
		dashboards, err = c.AnalyticsService.GetAllMetrics(ctx)
		if err != nil {
			return err
		}
	}

	for _, line := range formatTable(summaryRows(dashboards)) {
		fmt.Println(line)
	}
	return nil
}

func export(ctx context.Context, svc analyticsdomain.Service, source, table string, format normalization.ExportFormat, out string) error {
	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}
	return svc.Export(ctx, w, source, table, format)
}

// summaryRows строки сводной таблицы: заголовок и по строке на источник
func summaryRows(dashboards []analyticsdomain.SourceDashboard) [][]string {
	rows := [][]string{{"Источник", "Покупатели", "Группы", "Наборы авторов", "Автор", "Лучший день", "Покупатель", "Ошибка"}}
	for _, d := range dashboards {
		if d.Metrics == nil {
			rows = append(rows, []string{d.Source, "", "", "", "", "", "", d.Error})
			continue
		}
		m := d.Metrics
		var author, day, customer string
		if m.MostPopularAuthor != nil {
			author = fmt.Sprintf("%s (%d)", m.MostPopularAuthor.Author, m.MostPopularAuthor.BooksSold)
		}
		if len(m.TopRevenueDays) > 0 {
			day = fmt.Sprintf("%s %.2f", m.TopRevenueDays[0].Date, m.TopRevenueDays[0].Revenue)
		}
		if m.TopCustomer != nil {
			customer = fmt.Sprintf("%s %.2f", m.TopCustomer.Name, m.TopCustomer.TotalSpent)
		}
		rows = append(rows, []string{
			d.Source,
			strconv.FormatInt(m.UniqueCustomerCount, 10),
			strconv.FormatInt(m.LinkedCustomerGroupCount, 10),
			strconv.FormatInt(m.UniqueAuthorSetCount, 10),
			author,
			day,
			customer,
			d.Error,
		})
	}
	return rows
}

// formatTable выравнивает столбцы по ширине отображения.
// Первая строка считается заголовком и отделяется линией.
func formatTable(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	colWidths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if w := runewidth.StringWidth(row[i]); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	var result []string
	for i, row := range rows {
		var sb strings.Builder
		sb.WriteString("|")
		for j, width := range colWidths {
			content := ""
			if j < len(row) {
				content = row[j]
			}
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(content, width))
			sb.WriteString(" |")
		}
		result = append(result, sb.String())

		if i == 0 {
			var sep strings.Builder
			sep.WriteString("|")
			for _, width := range colWidths {
				sep.WriteString(" " + strings.Repeat("-", width) + " |")
			}
			result = append(result, sep.String())
		}
	}
	return result
}
