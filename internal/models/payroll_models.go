package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PeriodTypeWeekly   = "weekly"
	PeriodTypeBiweekly = "biweekly"
	PeriodTypeMonthly  = "monthly"

	PayrollStatusDraft     = "draft"
	PayrollStatusFinalized = "finalized"
	PayrollStatusPaid      = "paid"
)

func IsValidPeriodType(s string) bool {
	return s == PeriodTypeWeekly || s == PeriodTypeBiweekly || s == PeriodTypeMonthly
}

func IsValidPayrollStatus(s string) bool {
	return s == PayrollStatusDraft || s == PayrollStatusFinalized || s == PayrollStatusPaid
}

// NextPayrollStatus returns the only status a period may move to from current.
func NextPayrollStatus(current string) (string, bool) {
	switch current {
	case PayrollStatusDraft:
		return PayrollStatusFinalized, true
	case PayrollStatusFinalized:
		return PayrollStatusPaid, true
	}
	return "", false
}

// PayrollPeriod groups the pay entries for one date range.
type PayrollPeriod struct {
	ID          int64           `json:"id"`
	PeriodType  string          `json:"period_type"`
	StartDate   Date            `json:"start_date"`
	EndDate     Date            `json:"end_date"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	EntryCount int            `json:"entry_count"`
	Entries    []PayrollEntry `json:"entries,omitempty"`
}

// PayrollEntry is one worker's pay within a period.
type PayrollEntry struct {
	ID            int64           `json:"id"`
	PeriodID      int64           `json:"period_id"`
	WorkerID      int64           `json:"worker_id"`
	HoursRegular  decimal.Decimal `json:"hours_regular"`
	HoursOvertime decimal.Decimal `json:"hours_overtime"`
	RateRegular   decimal.Decimal `json:"rate_regular"`
	RateOvertime  decimal.Decimal `json:"rate_overtime"`
	Bonuses       decimal.Decimal `json:"bonuses"`
	Deductions    decimal.Decimal `json:"deductions"`
	GrossPay      decimal.Decimal `json:"gross_pay"`
	NetPay        decimal.Decimal `json:"net_pay"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	WorkerName string `json:"worker_name,omitempty"`
}

// WorkerHours is one JobWorker row joined with its job's scheduled date, as read for aggregation.
type WorkerHours struct {
	WorkerID      int64
	JobID         int64
	ScheduledDate Date
	HoursRegular  *decimal.Decimal
	HoursOvertime *decimal.Decimal
}
