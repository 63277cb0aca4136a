package service

import (
	"context"
	"time"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
)

func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	now := s.now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	today, err := s.repo.SalesTotal(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return domain.DashboardStats{}, err
	}
	monthly, err := s.repo.SalesTotal(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return domain.DashboardStats{}, err
	}
	lowStock, err := s.repo.CountLowStock(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	total, err := s.repo.CountProducts(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	return domain.DashboardStats{
		TodaySales:    today,
		LowStockCount: lowStock,
		TotalProducts: total,
		MonthlySales:  monthly,
	}, nil
}
