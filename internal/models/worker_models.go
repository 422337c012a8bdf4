package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PayTypeHourly = "hourly"
	PayTypePerJob = "per_job"
	PayTypeSalary = "salary"

	WorkerStatusActive   = "active"
	WorkerStatusInactive = "inactive"
)

// OvertimeMultiplier applies when a worker has no explicit overtime rate,
// and always to job assignment overtime hours.
var OvertimeMultiplier = decimal.RequireFromString("1.5")

// Worker represents a field technician or helper.
type Worker struct {
	ID           int64            `json:"id"`
	FullName     string           `json:"full_name"`
	Phone        *string          `json:"phone,omitempty"`
	Email        *string          `json:"email,omitempty"`
	Role         *string          `json:"role,omitempty"`
	PayType      string           `json:"pay_type"`
	HourlyRate   decimal.Decimal  `json:"hourly_rate"`
	OvertimeRate *decimal.Decimal `json:"overtime_rate,omitempty"`
	Status       string           `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	EffectiveOvertimeRate decimal.Decimal `json:"effective_overtime_rate"`
}

// OvertimeRateOrDefault returns the explicit overtime rate, or 1.5 times the hourly rate when unset.
func (w *Worker) OvertimeRateOrDefault() decimal.Decimal {
	if w.OvertimeRate != nil {
		return *w.OvertimeRate
	}
	return w.HourlyRate.Mul(OvertimeMultiplier)
}

// FillDerived populates response-only fields.
func (w *Worker) FillDerived() {
	w.EffectiveOvertimeRate = Money(w.OvertimeRateOrDefault())
}

func IsValidPayType(s string) bool {
	return s == PayTypeHourly || s == PayTypePerJob || s == PayTypeSalary
}

func IsValidWorkerStatus(s string) bool {
	return s == WorkerStatusActive || s == WorkerStatusInactive
}

// JobWorker assigns a worker to a job and records the hours worked there.
type JobWorker struct {
	ID            int64           `json:"id"`
	JobID         int64           `json:"job_id"`
	WorkerID      int64           `json:"worker_id"`
	HoursRegular  decimal.Decimal `json:"hours_regular"`
	HoursOvertime decimal.Decimal `json:"hours_overtime"`
	LaborRate     decimal.Decimal `json:"labor_rate"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	WorkerName string      `json:"worker_name,omitempty"`
	Job        *JobSummary `json:"job,omitempty"`
}

// RecalculateCost sets LaborCost from hours and rate; overtime pays 1.5 times the labor rate.
func (jw *JobWorker) RecalculateCost() {
	regular := jw.HoursRegular.Mul(jw.LaborRate)
	overtime := jw.HoursOvertime.Mul(jw.LaborRate).Mul(OvertimeMultiplier)
	jw.LaborCost = Money(regular.Add(overtime))
}
