package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

type AnalyticsService struct {
	UserRepository    repositories.UserRepository
	ProductRepository repositories.ProductRepository
	OrderRepository   repositories.OrderRepository
	now               func() time.Time
}

func NewAnalyticsService(
	userRepo repositories.UserRepository,
	productRepo repositories.ProductRepository,
	orderRepo repositories.OrderRepository,
) *AnalyticsService {
	return &AnalyticsService{
		UserRepository:    userRepo,
		ProductRepository: productRepo,
		OrderRepository:   orderRepo,
		now:               time.Now,
	}
}

func (s *AnalyticsService) GetUserGrowth(ctx context.Context, startDate, endDate time.Time) (map[string]int, error) {
	count, err := s.UserRepository.CountUsersCreatedBetween(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return map[string]int{"new_users": int(count)}, nil
}

// DashboardStats collects the admin counters and the revenue of the last
// twelve calendar months.
func (s *AnalyticsService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.UserRepository.CountAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalProducts, err = s.ProductRepository.CountAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.OrderRepository.CountAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Revenue, err = s.OrderRepository.Revenue(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Monthly, err = s.OrderRepository.MonthlyRevenue(ctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
