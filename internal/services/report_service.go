package services

import (
	"context"
	"sort"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/rules"

	"github.com/shopspring/decimal"
)

const reportDateLayout = "2006-01-02"

// maxReportRange bounds a single sales report.
const maxReportRange = 366 * 24 * time.Hour

// ReportService builds sales and stock reports.
type ReportService interface {
	GetSalesReport(ctx context.Context, params models.ReportRequestParams) (*models.SalesReport, error)
	GetInventoryReport(ctx context.Context, lowStockOnly bool) ([]models.InventoryReportItem, error)
}

type reportService struct {
	orderRepo     repositories.OrderRepository
	inventoryRepo repositories.InventoryRepository
	now           func() time.Time
}

// NewReportService creates a new instance of ReportService.
func NewReportService(or repositories.OrderRepository, ir repositories.InventoryRepository) ReportService {
	return &reportService{orderRepo: or, inventoryRepo: ir, now: time.Now}
}

// reportRange resolves [from, to) in local time. Missing dates default to today.
func (s *reportService) reportRange(params models.ReportRequestParams) (time.Time, time.Time, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from, to := today, today

	var err error
	if params.StartDate != "" {
		if from, err = time.ParseInLocation(reportDateLayout, params.StartDate, now.Location()); err != nil {
			return time.Time{}, time.Time{}, validationErrorf("start_date must be YYYY-MM-DD")
		}
	}
	if params.EndDate != "" {
		if to, err = time.ParseInLocation(reportDateLayout, params.EndDate, now.Location()); err != nil {
			return time.Time{}, time.Time{}, validationErrorf("end_date must be YYYY-MM-DD")
		}
	} else if params.StartDate != "" {
		to = from
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, validationErrorf("end_date must not be before start_date")
	}
	to = to.AddDate(0, 0, 1)
	if to.Sub(from) > maxReportRange {
		return time.Time{}, time.Time{}, validationErrorf("report range must not exceed one year")
	}
	return from, to, nil
}

func (s *reportService) GetSalesReport(ctx context.Context, params models.ReportRequestParams) (*models.SalesReport, error) {
	from, to, err := s.reportRange(params)
	if err != nil {
		return nil, err
	}
	// sales belong to the day the order was closed, not the day it was opened
	orders, _, err := s.orderRepo.GetOrders(ctx, models.OrderFilters{ClosedFrom: &from, ClosedTo: &to})
	if err != nil {
		return nil, storeError(err, nil)
	}
	return buildSalesReport(from, to, orders), nil
}

// buildSalesReport aggregates paid orders. Cancelled orders are only counted.
func buildSalesReport(from, to time.Time, orders []models.Order) *models.SalesReport {
	report := &models.SalesReport{
		From:            from,
		To:              to,
		ByPaymentMethod: map[string]float64{},
		ByOrderType:     map[string]float64{},
		ByKind:          map[string]float64{},
		Items:           []models.SalesReportItem{},
	}

	subtotal, discount, net := decimal.Zero, decimal.Zero, decimal.Zero
	byMethod := map[string]decimal.Decimal{}
	byType := map[string]decimal.Decimal{}
	byKind := map[string]decimal.Decimal{}
	type itemTotals struct {
		line  models.SalesReportItem
		sales decimal.Decimal
	}
	byItem := map[string]*itemTotals{}

	for _, order := range orders {
		switch order.Status {
		case models.OrderStatusCancelled:
			report.CancelledCount++
			continue
		case models.OrderStatusPaid:
		default:
			continue
		}
		report.OrdersCount++
		subtotal = subtotal.Add(decimal.NewFromFloat(order.Subtotal))
		discount = discount.Add(decimal.NewFromFloat(order.Discount))
		total := decimal.NewFromFloat(order.Total)
		net = net.Add(total)

		method := "unknown"
		if order.Payment != nil && order.Payment.Method != "" {
			method = order.Payment.Method
		}
		byMethod[method] = byMethod[method].Add(total)
		byType[string(order.OrderType)] = byType[string(order.OrderType)].Add(total)

		for _, item := range order.Items {
			kind := rules.Classify(item.Category, item.Name).Kind
			if kind == rules.KindUnclassified {
				kind = rules.KindFood
			}
			line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
			byKind[string(kind)] = byKind[string(kind)].Add(line)

			key := item.InventoryItemID
			if key == "" {
				key = item.Name
			}
			t, ok := byItem[key]
			if !ok {
				t = &itemTotals{line: models.SalesReportItem{
					InventoryItemID: item.InventoryItemID,
					Name:            item.Name,
					Category:        item.Category,
					Kind:            string(kind),
				}}
				byItem[key] = t
			}
			t.line.TotalQuantity += item.Quantity
			t.sales = t.sales.Add(line)
		}
	}

	report.Subtotal = subtotal.Round(2).InexactFloat64()
	report.TotalDiscount = discount.Round(2).InexactFloat64()
	report.NetSales = net.Round(2).InexactFloat64()
	if report.OrdersCount > 0 {
		report.AverageTicket = net.Div(decimal.NewFromInt(int64(report.OrdersCount))).Round(2).InexactFloat64()
	}
	for k, v := range byMethod {
		report.ByPaymentMethod[k] = v.Round(2).InexactFloat64()
	}
	for k, v := range byType {
		report.ByOrderType[k] = v.Round(2).InexactFloat64()
	}
	for k, v := range byKind {
		report.ByKind[k] = v.Round(2).InexactFloat64()
	}
	for _, t := range byItem {
		t.line.TotalSales = t.sales.Round(2).InexactFloat64()
		report.Items = append(report.Items, t.line)
	}
	sort.Slice(report.Items, func(i, j int) bool {
		if report.Items[i].TotalSales != report.Items[j].TotalSales {
			return report.Items[i].TotalSales > report.Items[j].TotalSales
		}
		return report.Items[i].Name < report.Items[j].Name
	})
	return report
}

// Inventory report statuses.
const (
	StockStatusOut        = "Out of Stock"
	StockStatusLow        = "Low Stock"
	StockStatusOK         = "In Stock"
	StockStatusNotTracked = "Not Tracked"
)

func (s *reportService) GetInventoryReport(ctx context.Context, lowStockOnly bool) ([]models.InventoryReportItem, error) {
	items, _, err := s.inventoryRepo.GetItems(ctx, models.InventoryFilters{LowStock: lowStockOnly})
	if err != nil {
		return nil, storeError(err, nil)
	}
	report := make([]models.InventoryReportItem, 0, len(items))
	for i := range items {
		item := &items[i]
		line := models.InventoryReportItem{
			ItemID:      item.ID,
			ItemName:    item.Name,
			CategoryID:  item.CategoryID,
			Quantity:    item.Quantity,
			MinQuantity: item.MinQuantity,
			Unit:        item.Unit,
		}
		switch {
		case item.Quantity == nil:
			line.Status = StockStatusNotTracked
		case *item.Quantity <= 0:
			line.Status = StockStatusOut
		case item.IsLowStock():
			line.Status = StockStatusLow
		default:
			line.Status = StockStatusOK
		}
		report = append(report, line)
	}
	return report, nil
}
