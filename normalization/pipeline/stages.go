package pipeline

import (
	"context"
	"math"
	"time"

	"salesanalytics/internal/domain/repositories"
	"salesanalytics/normalization"
)

// loadBooks нормализует каталог книг и считает наборы авторов
func (p *Pipeline) loadBooks(ctx context.Context, source string, result *RunResult, metrics map[string]int64) error {
	table, err := p.readTable(ctx, source, repositories.TableBooks)
	if err != nil {
		return err
	}
	res := &result.Books
	res.Read = table.Len()

	err = p.applyColumns(source, repositories.TableBooks, table, res, []columnTransform{
		{colYear, normalization.NormalizeYears},
		{colTitle, normalization.CleanTitles},
		{colAuthor, normalization.NormalizeAuthors},
		{colPublisher, normalization.CleanPublishers},
	})
	if err != nil {
		return err
	}

	metrics[repositories.MetricUniqueAuthorSets] = int64(normalization.CountAuthorCombinations(table.Column(colAuthor)))

	books := make([]repositories.BookRecord, 0, table.Len())
	badIDs := 0
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		id, ok := normalization.AsInt64(row[colBookID])
		if !ok {
			badIDs++
			continue
		}
		year, _ := normalization.AsInt64(row[colYear])
		books = append(books, repositories.BookRecord{
			ID:        id,
			Title:     stringValue(row[colTitle]),
			Author:    stringValue(row[colAuthor]),
			Genre:     stringValue(row[colGenre]),
			Publisher: stringValue(row[colPublisher]),
			Year:      int(year),
			Source:    source,
		})
	}
	p.countMalformed(source, repositories.TableBooks, colBookID, res, badIDs)

	return p.storeOnce(ctx, source, repositories.TableBooks, res, len(books), func() error {
		return p.repo.AppendBooks(ctx, books)
	})
}

// loadCustomers нормализует телефоны и связывает дубли покупателей
func (p *Pipeline) loadCustomers(ctx context.Context, source string, result *RunResult, metrics map[string]int64) error {
	table, err := p.readTable(ctx, source, repositories.TableCustomers)
	if err != nil {
		return err
	}
	res := &result.Customers
	res.Read = table.Len()

	err = p.applyColumns(source, repositories.TableCustomers, table, res, []columnTransform{
		{colPhone, normalization.StandardizePhones},
	})
	if err != nil {
		return err
	}

	customers := make([]repositories.CustomerRecord, 0, table.Len())
	badIDs := 0
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		id, ok := normalization.AsInt64(row[colCustomerID])
		if !ok {
			badIDs++
			continue
		}
		customers = append(customers, repositories.CustomerRecord{
			ID:      id,
			Name:    stringValue(row[colName]),
			Address: stringValue(row[colAddress]),
			Phone:   stringValue(row[colPhone]),
			Email:   stringValue(row[colEmail]),
			Source:  source,
		})
	}
	p.countMalformed(source, repositories.TableCustomers, colCustomerID, res, badIDs)

	resolution := p.analyzer.Resolve(customers)
	metrics[repositories.MetricUniqueCustomers] = int64(resolution.UniqueCustomers)
	metrics[repositories.MetricLinkedCustomerGroups] = int64(resolution.ComponentCount)

	p.logger.Debug("customer duplicates resolved",
		"source", source,
		"groups", len(resolution.Groups),
		"components", resolution.ComponentCount,
		"unique_customers", resolution.UniqueCustomers,
	)

	return p.storeOnce(ctx, source, repositories.TableCustomers, res, len(resolution.Customers), func() error {
		return p.repo.AppendCustomers(ctx, resolution.Customers)
	})
}

// loadOrders пересчитывает цены в USD, извлекает даты и подставляет адрес доставки
// из уже сохраненных покупателей источника
func (p *Pipeline) loadOrders(ctx context.Context, source string, result *RunResult, _ map[string]int64) error {
	table, err := p.readTable(ctx, source, repositories.TableOrders)
	if err != nil {
		return err
	}
	res := &result.Orders
	res.Read = table.Len()

	err = p.applyColumns(source, repositories.TableOrders, table, res, []columnTransform{
		{colUnitPrice, p.prices.Column},
		{colTimestamp, normalization.ExtractDates},
	})
	if err != nil {
		return err
	}

	addresses, err := p.repo.GetCustomerAddresses(ctx, source)
	if err != nil {
		return err
	}

	orders := make([]repositories.OrderRecord, 0, table.Len())
	badIDs := 0
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		customerID, okCustomer := normalization.AsInt64(row[colUserID])
		bookID, okBook := normalization.AsInt64(row[colOrderBook])
		if !okCustomer || !okBook {
			badIDs++
			continue
		}

		order := repositories.OrderRecord{
			CustomerID:   customerID,
			BookID:       bookID,
			Source:       source,
			CurrencyCode: CurrencyUSD,
		}
		quantity, okQuantity := normalization.AsInt64(row[colQuantity])
		order.Quantity = quantity
		if price, ok := row[colUnitPrice].(float64); ok {
			order.UnitPrice = &price
			if okQuantity {
				total := math.Round(price*float64(quantity)*100) / 100
				order.Total = &total
			}
		}
		if date, ok := row[colTimestamp].(time.Time); ok {
			order.Date = &date
		}
		if address, ok := addresses[customerID]; ok {
			order.ShippingMethod = &address
		}
		orders = append(orders, order)
	}
	p.countMalformed(source, repositories.TableOrders, colUserID, res, badIDs)

	return p.storeOnce(ctx, source, repositories.TableOrders, res, len(orders), func() error {
		return p.repo.AppendOrders(ctx, orders)
	})
}

func stringValue(v any) string {
	s, _ := normalization.AsString(v)
	return s
}
