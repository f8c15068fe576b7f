package service

import (
	"context"
	"time"

	"go-trading-post/internal/repository"
)

type ReportService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	GetFinancialSummary(ctx context.Context, startDate, endDate time.Time) (*repository.FinancialSummary, error)
	GetTopGoods(ctx context.Context, limit int) ([]repository.TopGood, error)
}

type reportService struct {
	txRepo            repository.TransactionRepository
	lowStockThreshold int
}

func NewReportService(txRepo repository.TransactionRepository, lowStockThreshold int) ReportService {
	return &reportService{txRepo: txRepo, lowStockThreshold: lowStockThreshold}
}

func (s *reportService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		return nil, invalid("days must be positive")
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.txRepo.GetStockMovement(startDate, endDate)
	if err != nil {
		return nil, storageFailure("stock movement report", err)
	}
	return data, nil
}

func (s *reportService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.txRepo.GetDashboardStats(s.lowStockThreshold)
	if err != nil {
		return nil, storageFailure("dashboard stats", err)
	}
	return stats, nil
}

func (s *reportService) GetFinancialSummary(ctx context.Context, startDate, endDate time.Time) (*repository.FinancialSummary, error) {
	if endDate.Before(startDate) {
		return nil, invalid("end date is before start date")
	}
	summary, err := s.txRepo.GetFinancialSummary(startDate, endDate)
	if err != nil {
		return nil, storageFailure("financial summary", err)
	}
	return summary, nil
}

func (s *reportService) GetTopGoods(ctx context.Context, limit int) ([]repository.TopGood, error) {
	if limit <= 0 {
		return nil, invalid("limit must be positive")
	}
	top, err := s.txRepo.GetTopGoods(limit)
	if err != nil {
		return nil, storageFailure("top goods report", err)
	}
	return top, nil
}
