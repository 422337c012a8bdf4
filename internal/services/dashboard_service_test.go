package services

import (
	"testing"
	"time"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

type fakeDashboardRepo struct {
	repositories.DashboardRepository
	jobs []models.Job
}

func (f *fakeDashboardRepo) CountJobsByStatus() (map[string]int, error) {
	counts := map[string]int{}
	for _, j := range f.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

func (f *fakeDashboardRepo) CountJobsScheduledBetween(start, end models.Date, statuses []string) (int, error) {
	n := 0
	for _, j := range f.jobs {
		if j.ScheduledDate == nil || j.ScheduledDate.Before(start) || end.Before(*j.ScheduledDate) {
			continue
		}
		for _, s := range statuses {
			if j.Status == s {
				n++
				break
			}
		}
	}
	return n, nil
}

func (f *fakeDashboardRepo) SumPaidRevenueBetween(_, _ time.Time) (decimal.Decimal, error) {
	return dec("1250.00"), nil
}

type countingItemRepo struct {
	repositories.InventoryItemRepository
}

func (countingItemRepo) CountLowStock() (int, error) { return 2, nil }

type countingWorkerRepo struct {
	repositories.WorkerRepository
}

func (countingWorkerRepo) CountActiveWorkers() (int, error) { return 5, nil }

type countingPayrollRepo struct {
	repositories.PayrollRepository
}

func (countingPayrollRepo) CountPeriodsByStatus(string) (int, error) { return 1, nil }

func dateP(y int, m time.Month, d int) *models.Date {
	date := models.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	return &date
}

func TestWeekRange(t *testing.T) {
	cases := []struct {
		now        time.Time
		start, end string
	}{
		{time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC), "2026-10-12", "2026-10-18"},
		{time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), "2026-10-12", "2026-10-18"},
		{time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC), "2026-10-12", "2026-10-18"},
		{time.Date(2027, 1, 1, 9, 0, 0, 0, time.UTC), "2026-12-28", "2027-01-03"},
	}
	for _, tc := range cases {
		start, end := WeekRange(tc.now)
		if start.String() != tc.start || end.String() != tc.end {
			t.Fatalf("WeekRange(%s) = %s..%s, want %s..%s", tc.now, start, end, tc.start, tc.end)
		}
	}
}

func TestGetSummaryCountsOnlyConfirmedVisitsThisWeek(t *testing.T) {
	repo := &fakeDashboardRepo{jobs: []models.Job{
		{ID: 1, Status: models.JobStatusScheduled, ScheduledDate: dateP(2026, 10, 13)},
		{ID: 2, Status: models.JobStatusCompleted, ScheduledDate: dateP(2026, 10, 18)},
		{ID: 3, Status: models.JobStatusLead, ScheduledDate: dateP(2026, 10, 14)},
		{ID: 4, Status: models.JobStatusScheduled, ScheduledDate: dateP(2026, 10, 19)},
		{ID: 5, Status: models.JobStatusLead},
	}}
	svc := NewDashboardService(repo, countingItemRepo{}, countingWorkerRepo{}, countingPayrollRepo{})

	summary, err := svc.GetSummary(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.JobsScheduledThisWeek != 2 {
		t.Fatalf("scheduled this week: got %d, want 2", summary.JobsScheduledThisWeek)
	}
	if summary.JobsByStatus[models.JobStatusLead] != 2 {
		t.Fatalf("leads by status: got %d, want 2", summary.JobsByStatus[models.JobStatusLead])
	}
	if summary.MonthStart.String() != "2026-10-01" || !summary.RevenueThisMonth.Equal(dec("1250")) {
		t.Fatalf("month figures: %s, %s", summary.MonthStart, summary.RevenueThisMonth)
	}
	if summary.LowStockItems != 2 || summary.ActiveWorkers != 5 || summary.DraftPayrollPeriods != 1 {
		t.Fatalf("counters: %+v", summary)
	}
}
