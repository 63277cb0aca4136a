package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store"
)

// LowStock lists products at or below their reorder threshold, emptiest first.
func (s *Service) LowStock(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *Service) AdjustStock(ctx context.Context, req domain.StockAdjustRequest) (domain.StockAdjustResponse, error) {
	req.AdjustmentType = domain.AdjustmentType(strings.ToLower(strings.TrimSpace(string(req.AdjustmentType))))
	if !req.AdjustmentType.Valid() {
		return domain.StockAdjustResponse{}, fmt.Errorf("%w: invalid adjustment type", store.ErrInvalid)
	}
	if req.ProductID < 1 {
		return domain.StockAdjustResponse{}, fmt.Errorf("%w: productId is required", store.ErrInvalid)
	}
	if req.Quantity < 1 {
		return domain.StockAdjustResponse{}, fmt.Errorf("%w: quantity must be positive", store.ErrInvalid)
	}

	adj, err := s.repo.AdjustStock(ctx, domain.StockAdjustment{
		ProductID:          req.ProductID,
		AdjustmentQuantity: req.Quantity,
		AdjustmentType:     req.AdjustmentType,
		Reason:             strings.TrimSpace(req.Reason),
		EmployeeID:         actorEmployeeID(ctx),
		CreatedAt:          s.now().UTC(),
	})
	if err != nil {
		return domain.StockAdjustResponse{}, err
	}

	s.logAudit(ctx, "stock_adjust", "product", adj.ProductID, fmt.Sprintf("%s %d: %d -> %d", adj.AdjustmentType, adj.AdjustmentQuantity, adj.OldQuantity, adj.NewQuantity))
	return domain.StockAdjustResponse{
		Success:     true,
		OldQuantity: adj.OldQuantity,
		NewQuantity: adj.NewQuantity,
	}, nil
}

// ListAdjustments returns at most domain.MaxAdjustmentRows entries, newest
// first. Either date bound may be given on its own.
func (s *Service) ListAdjustments(ctx context.Context, productID int64, startDate string, endDate string) ([]domain.StockAdjustment, error) {
	if productID < 0 {
		return nil, fmt.Errorf("%w: productId must be positive", store.ErrInvalid)
	}
	from, to, err := s.parseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.repo.ListStockAdjustments(ctx, domain.AdjustmentFilter{
		ProductID: productID,
		From:      from,
		To:        to,
		Limit:     domain.MaxAdjustmentRows,
	})
}
