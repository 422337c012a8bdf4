package models

import "github.com/shopspring/decimal"

// DashboardSummary holds the back-office landing page figures.
type DashboardSummary struct {
	JobsByStatus          map[string]int  `json:"jobs_by_status"`
	JobsScheduledThisWeek int             `json:"jobs_scheduled_this_week"`
	RevenueThisMonth      decimal.Decimal `json:"revenue_this_month"`
	LowStockItems         int             `json:"low_stock_items"`
	ActiveWorkers         int             `json:"active_workers"`
	DraftPayrollPeriods   int             `json:"draft_payroll_periods"`
	WeekStart             Date            `json:"week_start"`
	WeekEnd               Date            `json:"week_end"`
	MonthStart            Date            `json:"month_start"`
}
