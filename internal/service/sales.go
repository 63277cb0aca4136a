package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store"
)

// CreateSale records a sale with its items and decrements stock for every
// line. Line prices and subtotals are stored as submitted by the terminal.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.SaleCreateResponse, error) {
	if len(req.Items) == 0 {
		return domain.SaleCreateResponse{}, fmt.Errorf("%w: sale must contain at least one item", store.ErrInvalid)
	}
	if req.TotalAmount == nil || req.TotalAmount.IsNegative() {
		return domain.SaleCreateResponse{}, fmt.Errorf("%w: totalAmount is required and must not be negative", store.ErrInvalid)
	}
	discount := decimal.Zero
	if req.Discount != nil {
		if req.Discount.IsNegative() {
			return domain.SaleCreateResponse{}, fmt.Errorf("%w: discount must not be negative", store.ErrInvalid)
		}
		discount = req.Discount.Round(2)
	}

	items := make([]domain.SaleItem, 0, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID < 1 {
			return domain.SaleCreateResponse{}, fmt.Errorf("%w: item %d has no productId", store.ErrInvalid, i+1)
		}
		if item.Quantity < 1 {
			return domain.SaleCreateResponse{}, fmt.Errorf("%w: item %d quantity must be positive", store.ErrInvalid, i+1)
		}
		if item.Price == nil || item.Price.IsNegative() || item.Subtotal == nil || item.Subtotal.IsNegative() {
			return domain.SaleCreateResponse{}, fmt.Errorf("%w: item %d needs a non-negative price and subtotal", store.ErrInvalid, i+1)
		}
		items = append(items, domain.SaleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.Round(2),
			Subtotal:  item.Subtotal.Round(2),
		})
	}

	sale := domain.Sale{
		CustomerName:  defaultString(req.CustomerName, domain.DefaultCustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		TotalAmount:   req.TotalAmount.Round(2),
		Discount:      discount,
		PaymentMethod: strings.ToLower(defaultString(req.PaymentMethod, domain.DefaultPaymentMethod)),
		EmployeeID:    actorEmployeeID(ctx),
		CreatedAt:     s.now().UTC(),
		Items:         items,
	}

	created, err := s.repo.CreateSale(ctx, sale, s.enforceStockFloor)
	if err != nil {
		return domain.SaleCreateResponse{}, err
	}

	if !s.enforceStockFloor {
		for _, item := range created.Items {
			s.warnIfOversold(ctx, item.ProductID)
		}
	}
	s.logAudit(ctx, "sale_create", "sale", created.ID, fmt.Sprintf("total=%s items=%d", created.TotalAmount.StringFixed(2), len(created.Items)))
	return domain.SaleCreateResponse{Success: true, SaleID: created.ID}, nil
}

func (s *Service) warnIfOversold(ctx context.Context, productID int64) {
	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return
	}
	if product.Quantity < 0 {
		log.Printf("[service] WARN: product %d (%s) oversold, quantity now %d", product.ID, product.Name, product.Quantity)
	}
}

func (s *Service) ListSales(ctx context.Context, startDate string, endDate string) ([]domain.Sale, error) {
	from, to, err := s.parseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSales(ctx, domain.SaleFilter{From: from, To: to})
}

func (s *Service) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSaleItems(ctx context.Context, saleID int64) ([]domain.SaleItem, error) {
	return s.repo.ListSaleItems(ctx, saleID)
}

func defaultString(value string, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
