// Package payroll aggregates assignment hours per worker and computes pay.
// Everything here is pure; callers load the rows and persist the results.
package payroll

import (
	"sort"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
)

// Hours is one worker's summed hours over a date range.
type Hours struct {
	Regular  decimal.Decimal
	Overtime decimal.Decimal
	Jobs     int
}

// Adjustment carries the user-entered bonus and deduction for one worker.
type Adjustment struct {
	Bonuses    decimal.Decimal
	Deductions decimal.Decimal
}

// Line is the computed pay of one worker for a period.
type Line struct {
	WorkerID      int64           `json:"worker_id"`
	WorkerName    string          `json:"worker_name"`
	JobCount      int             `json:"job_count"`
	HoursRegular  decimal.Decimal `json:"hours_regular"`
	HoursOvertime decimal.Decimal `json:"hours_overtime"`
	RateRegular   decimal.Decimal `json:"rate_regular"`
	RateOvertime  decimal.Decimal `json:"rate_overtime"`
	Bonuses       decimal.Decimal `json:"bonuses"`
	Deductions    decimal.Decimal `json:"deductions"`
	GrossPay      decimal.Decimal `json:"gross_pay"`
	NetPay        decimal.Decimal `json:"net_pay"`
	Included      bool            `json:"included"`
}

// Aggregate groups rows by worker and sums regular and overtime hours independently.
// Rows whose scheduled date is outside [start, end] are ignored; missing hours count as zero.
func Aggregate(rows []models.WorkerHours, start, end models.Date) map[int64]Hours {
	totals := make(map[int64]Hours)
	for _, row := range rows {
		if !row.ScheduledDate.Within(start, end) {
			continue
		}
		h := totals[row.WorkerID]
		if row.HoursRegular != nil {
			h.Regular = h.Regular.Add(*row.HoursRegular)
		}
		if row.HoursOvertime != nil {
			h.Overtime = h.Overtime.Add(*row.HoursOvertime)
		}
		h.Jobs++
		totals[row.WorkerID] = h
	}
	return totals
}

// ComputePay returns gross = regular*rate + overtime*overtimeRate and net = gross + bonuses - deductions.
func ComputePay(hoursRegular, hoursOvertime, rateRegular, rateOvertime, bonuses, deductions decimal.Decimal) (gross, net decimal.Decimal) {
	gross = models.Money(hoursRegular.Mul(rateRegular).Add(hoursOvertime.Mul(rateOvertime)))
	net = models.Money(gross.Add(bonuses).Sub(deductions))
	return gross, net
}

// IsIncluded reports whether a worker earns a persisted entry:
// nonzero regular hours, overtime hours or bonuses.
func IsIncluded(hoursRegular, hoursOvertime, bonuses decimal.Decimal) bool {
	return !hoursRegular.IsZero() || !hoursOvertime.IsZero() || !bonuses.IsZero()
}

// BuildLines prices every worker that has aggregated hours or an adjustment.
// Rates come from the worker record; overtime falls back to 1.5 times hourly.
// Lines are ordered by worker name, then id.
func BuildLines(hours map[int64]Hours, workers map[int64]models.Worker, adjustments map[int64]Adjustment) []Line {
	ids := make(map[int64]struct{}, len(hours)+len(adjustments))
	for id := range hours {
		ids[id] = struct{}{}
	}
	for id := range adjustments {
		ids[id] = struct{}{}
	}

	lines := make([]Line, 0, len(ids))
	for id := range ids {
		w, ok := workers[id]
		if !ok {
			continue
		}
		h := hours[id]
		adj := adjustments[id]
		line := Line{
			WorkerID:      id,
			WorkerName:    w.FullName,
			JobCount:      h.Jobs,
			HoursRegular:  h.Regular,
			HoursOvertime: h.Overtime,
			RateRegular:   w.HourlyRate,
			RateOvertime:  models.Money(w.OvertimeRateOrDefault()),
			Bonuses:       adj.Bonuses,
			Deductions:    adj.Deductions,
		}
		line.GrossPay, line.NetPay = ComputePay(line.HoursRegular, line.HoursOvertime, line.RateRegular, line.RateOvertime, line.Bonuses, line.Deductions)
		line.Included = IsIncluded(line.HoursRegular, line.HoursOvertime, line.Bonuses)
		lines = append(lines, line)
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].WorkerName != lines[j].WorkerName {
			return lines[i].WorkerName < lines[j].WorkerName
		}
		return lines[i].WorkerID < lines[j].WorkerID
	})
	return lines
}

// IncludedLines filters lines down to those that become entries.
func IncludedLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Included {
			out = append(out, l)
		}
	}
	return out
}

// Entry converts a line into an unsaved entry for periodID.
func (l Line) Entry(periodID int64) models.PayrollEntry {
	return models.PayrollEntry{
		PeriodID:      periodID,
		WorkerID:      l.WorkerID,
		HoursRegular:  l.HoursRegular,
		HoursOvertime: l.HoursOvertime,
		RateRegular:   l.RateRegular,
		RateOvertime:  l.RateOvertime,
		Bonuses:       l.Bonuses,
		Deductions:    l.Deductions,
		GrossPay:      l.GrossPay,
		NetPay:        l.NetPay,
		WorkerName:    l.WorkerName,
	}
}

// Recompute refreshes an entry's gross and net pay from its inputs.
func Recompute(e *models.PayrollEntry) {
	e.GrossPay, e.NetPay = ComputePay(e.HoursRegular, e.HoursOvertime, e.RateRegular, e.RateOvertime, e.Bonuses, e.Deductions)
}

// Total sums net pay over entries.
func Total(entries []models.PayrollEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.NetPay)
	}
	return total
}
