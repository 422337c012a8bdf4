package services

import (
	"fmt"
	"time"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"
)

// --- DashboardService Interface ---
type DashboardService interface {
	GetSummary(now time.Time) (*models.DashboardSummary, error)
}

// --- dashboardService Implementation ---
type dashboardService struct {
	dashboardRepo repositories.DashboardRepository
	itemRepo      repositories.InventoryItemRepository
	workerRepo    repositories.WorkerRepository
	payrollRepo   repositories.PayrollRepository
}

// NewDashboardService creates a new instance of DashboardService.
func NewDashboardService(
	dashboardRepo repositories.DashboardRepository,
	itemRepo repositories.InventoryItemRepository,
	workerRepo repositories.WorkerRepository,
	payrollRepo repositories.PayrollRepository,
) DashboardService {
	return &dashboardService{
		dashboardRepo: dashboardRepo,
		itemRepo:      itemRepo,
		workerRepo:    workerRepo,
		payrollRepo:   payrollRepo,
	}
}

// WeekRange returns the Monday to Sunday week containing now.
func WeekRange(now time.Time) (models.Date, models.Date) {
	day := models.NewDate(now)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return models.NewDate(start), models.NewDate(start.AddDate(0, 0, 6))
}

// MonthStart returns the first day of now's month.
func MonthStart(now time.Time) models.Date {
	y, m, _ := now.Date()
	return models.NewDate(time.Date(y, m, 1, 0, 0, 0, 0, time.UTC))
}

func (s *dashboardService) GetSummary(now time.Time) (*models.DashboardSummary, error) {
	weekStart, weekEnd := WeekRange(now)
	monthStart := MonthStart(now)

	byStatus, err := s.dashboardRepo.CountJobsByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	scheduled, err := s.dashboardRepo.CountJobsScheduledBetween(weekStart, weekEnd, models.ConfirmedJobStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to count scheduled jobs: %w", err)
	}
	revenue, err := s.dashboardRepo.SumPaidRevenueBetween(monthStart.Time, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	lowStock, err := s.itemRepo.CountLowStock()
	if err != nil {
		return nil, fmt.Errorf("failed to count low stock items: %w", err)
	}
	activeWorkers, err := s.workerRepo.CountActiveWorkers()
	if err != nil {
		return nil, fmt.Errorf("failed to count active workers: %w", err)
	}
	drafts, err := s.payrollRepo.CountPeriodsByStatus(models.PayrollStatusDraft)
	if err != nil {
		return nil, fmt.Errorf("failed to count draft payroll periods: %w", err)
	}

	return &models.DashboardSummary{
		JobsByStatus:          byStatus,
		JobsScheduledThisWeek: scheduled,
		RevenueThisMonth:      revenue,
		LowStockItems:         lowStock,
		ActiveWorkers:         activeWorkers,
		DraftPayrollPeriods:   drafts,
		WeekStart:             weekStart,
		WeekEnd:               weekEnd,
		MonthStart:            monthStart,
	}, nil
}
