package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gioservice_backend/internal/events"
	"gioservice_backend/internal/exports"
	"gioservice_backend/internal/locks"
	"gioservice_backend/internal/metrics"
	"gioservice_backend/internal/models"
	"gioservice_backend/internal/payroll"
	"gioservice_backend/internal/repositories"
	"gioservice_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Payroll ---
var (
	ErrPeriodNotFound      = errors.New("payroll period not found")
	ErrPayrollEntryMissing = errors.New("payroll entry not found")
	ErrPeriodNotDraft      = errors.New("payroll period is no longer a draft")
	ErrPeriodExists        = errors.New("a payroll period already exists for this date range")
)

// --- Payroll DTOs ---
type PayrollAdjustmentRequest struct {
	WorkerID   int64            `json:"worker_id" binding:"required"`
	Bonuses    *decimal.Decimal `json:"bonuses"`
	Deductions *decimal.Decimal `json:"deductions"`
}

type CreatePeriodRequest struct {
	PeriodType  string                     `json:"period_type" binding:"required"`
	StartDate   models.Date                `json:"start_date"`
	EndDate     models.Date                `json:"end_date"`
	Adjustments []PayrollAdjustmentRequest `json:"adjustments"`
	Notes       *string                    `json:"notes"`
}

type UpdateEntryRequest struct {
	HoursRegular  *decimal.Decimal `json:"hours_regular"`
	HoursOvertime *decimal.Decimal `json:"hours_overtime"`
	Bonuses       *decimal.Decimal `json:"bonuses"`
	Deductions    *decimal.Decimal `json:"deductions"`
}

type UpdatePeriodStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PayrollPreview is the computed, unsaved payroll for a date range.
type PayrollPreview struct {
	StartDate models.Date     `json:"start_date"`
	EndDate   models.Date     `json:"end_date"`
	Lines     []payroll.Line  `json:"lines"`
	Total     decimal.Decimal `json:"total"`
}

// --- PayrollService Interface ---
type PayrollService interface {
	Preview(start, end models.Date, adjustments []PayrollAdjustmentRequest) (*PayrollPreview, error)
	CreatePeriod(ctx context.Context, req CreatePeriodRequest) (*models.PayrollPeriod, error)
	GetPeriodByID(periodID int64) (*models.PayrollPeriod, error)
	GetPeriods(status *string, page, pageSize int) ([]models.PayrollPeriod, int, error)
	UpdateEntry(periodID, entryID int64, req UpdateEntryRequest) (*models.PayrollPeriod, error)
	UpdatePeriodStatus(periodID int64, status string) (*models.PayrollPeriod, error)
	DeletePeriod(periodID int64) error
	ExportPeriod(periodID int64) ([]byte, string, error)
}

// --- payrollService Implementation ---
type payrollService struct {
	payrollRepo    repositories.PayrollRepository
	workerRepo     repositories.WorkerRepository
	assignmentRepo repositories.JobWorkerRepository
	tx             repositories.TxRunner
	locker         locks.Locker
	publisher      events.Publisher
	metrics        *metrics.Metrics
}

// NewPayrollService creates a new instance of PayrollService.
func NewPayrollService(
	payrollRepo repositories.PayrollRepository,
	workerRepo repositories.WorkerRepository,
	assignmentRepo repositories.JobWorkerRepository,
	tx repositories.TxRunner,
	locker locks.Locker,
	publisher events.Publisher,
	m *metrics.Metrics,
) PayrollService {
	if locker == nil {
		locker = locks.Noop{}
	}
	return &payrollService{
		payrollRepo:    payrollRepo,
		workerRepo:     workerRepo,
		assignmentRepo: assignmentRepo,
		tx:             tx,
		locker:         locker,
		publisher:      publisher,
		metrics:        m,
	}
}

func validateRange(checks fieldChecks, start, end models.Date) {
	if start.IsZero() {
		checks.fail("start_date", "required")
	}
	if end.IsZero() {
		checks.fail("end_date", "required")
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		checks.fail("end_date", "must not be before start_date")
	}
}

func adjustmentMap(checks fieldChecks, reqs []PayrollAdjustmentRequest) map[int64]payroll.Adjustment {
	out := make(map[int64]payroll.Adjustment, len(reqs))
	for i, a := range reqs {
		if a.WorkerID <= 0 {
			checks.fail(fmt.Sprintf("adjustments[%d].worker_id", i), "required")
			continue
		}
		checks.nonNegative(fmt.Sprintf("adjustments[%d].bonuses", i), a.Bonuses)
		checks.nonNegative(fmt.Sprintf("adjustments[%d].deductions", i), a.Deductions)
		adj := out[a.WorkerID]
		adj.Bonuses = adj.Bonuses.Add(models.Money(decOrZero(a.Bonuses)))
		adj.Deductions = adj.Deductions.Add(models.Money(decOrZero(a.Deductions)))
		out[a.WorkerID] = adj
	}
	return out
}

// computeLines aggregates the hours in range and prices them. Any query failure fails the
// whole computation; there are no partial results.
func (s *payrollService) computeLines(start, end models.Date, adjustments map[int64]payroll.Adjustment) ([]payroll.Line, error) {
	rows, err := s.assignmentRepo.GetWorkerHoursInRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load worker hours: %w", err)
	}
	hours := payroll.Aggregate(rows, start, end)

	ids := make([]int64, 0, len(hours)+len(adjustments))
	for id := range hours {
		ids = append(ids, id)
	}
	for id := range adjustments {
		if _, ok := hours[id]; !ok {
			ids = append(ids, id)
		}
	}
	workers, err := s.workerRepo.GetWorkersByIDs(nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load workers: %w", err)
	}
	byID := make(map[int64]models.Worker, len(workers))
	for _, w := range workers {
		byID[w.ID] = w
	}
	for id := range adjustments {
		if _, ok := byID[id]; !ok {
			return nil, &ValidationError{Fields: map[string]string{"adjustments": fmt.Sprintf("worker %d not found", id)}}
		}
	}
	return payroll.BuildLines(hours, byID, adjustments), nil
}

func (s *payrollService) Preview(start, end models.Date, adjustments []PayrollAdjustmentRequest) (*PayrollPreview, error) {
	checks := fieldChecks{}
	validateRange(checks, start, end)
	adj := adjustmentMap(checks, adjustments)
	if err := checks.err(); err != nil {
		return nil, err
	}

	lines, err := s.computeLines(start, end, adj)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, l := range payroll.IncludedLines(lines) {
		total = total.Add(l.NetPay)
	}
	return &PayrollPreview{StartDate: start, EndDate: end, Lines: lines, Total: total}, nil
}

// CreatePeriod recomputes the payroll server-side and persists the period with its included
// entries in one transaction, under the date-range lock.
func (s *payrollService) CreatePeriod(ctx context.Context, req CreatePeriodRequest) (*models.PayrollPeriod, error) {
	req.PeriodType = strings.TrimSpace(strings.ToLower(req.PeriodType))
	checks := fieldChecks{}
	if !models.IsValidPeriodType(req.PeriodType) {
		checks.fail("period_type", "must be one of weekly, biweekly, monthly")
	}
	validateRange(checks, req.StartDate, req.EndDate)
	adj := adjustmentMap(checks, req.Adjustments)
	if err := checks.err(); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, locks.PayrollRangeKey(req.StartDate, req.EndDate))
	if err != nil {
		if errors.Is(err, locks.ErrBusy) {
			return nil, fmt.Errorf("%w: payroll %s to %s", ErrLockBusy, req.StartDate, req.EndDate)
		}
		return nil, fmt.Errorf("failed to lock payroll range: %w", err)
	}
	defer release()

	if _, err := s.payrollRepo.FindPeriodByRange(nil, req.StartDate, req.EndDate); err == nil {
		return nil, ErrPeriodExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing payroll periods: %w", err)
	}

	lines, err := s.computeLines(req.StartDate, req.EndDate, adj)
	if err != nil {
		return nil, err
	}
	included := payroll.IncludedLines(lines)

	period := &models.PayrollPeriod{
		PeriodType: req.PeriodType,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Status:     models.PayrollStatusDraft,
		Notes:      trimmedOrNil(req.Notes),
	}
	err = s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		id, err := s.payrollRepo.CreatePeriod(exec, period)
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrPeriodExists
			}
			return fmt.Errorf("failed to create payroll period: %w", err)
		}
		for _, line := range included {
			entry := line.Entry(id)
			if _, err := s.payrollRepo.CreateEntry(exec, &entry); err != nil {
				if errors.Is(err, repositories.ErrForeignKey) {
					return fmt.Errorf("%w: worker %d", ErrWorkerNotFound, line.WorkerID)
				}
				return fmt.Errorf("failed to create payroll entry: %w", err)
			}
		}
		return s.syncPeriodTotal(exec, id)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PayrollPeriodCreated()
	utils.LogInfo("Payroll period created", map[string]interface{}{
		"period_id": period.ID,
		"start":     period.StartDate.String(),
		"end":       period.EndDate.String(),
		"entries":   len(included),
	})
	events.Emit(ctx, s.publisher, events.New(events.PayrollPeriodCreated, period.ID, map[string]interface{}{
		"start_date": period.StartDate.String(),
		"end_date":   period.EndDate.String(),
		"entries":    len(included),
	}))
	return s.GetPeriodByID(period.ID)
}

// syncPeriodTotal sets the period total to the sum of its persisted entries' net pay.
func (s *payrollService) syncPeriodTotal(exec repositories.SQLExecutor, periodID int64) error {
	total, err := s.payrollRepo.SumNetPay(exec, periodID)
	if err != nil {
		return fmt.Errorf("failed to sum payroll entries: %w", err)
	}
	if err := s.payrollRepo.UpdatePeriodTotal(exec, periodID, total); err != nil {
		return fmt.Errorf("failed to update payroll period total: %w", err)
	}
	return nil
}

func (s *payrollService) GetPeriodByID(periodID int64) (*models.PayrollPeriod, error) {
	period, err := s.payrollRepo.GetPeriodByID(periodID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to get payroll period: %w", err)
	}
	if period.Entries, err = s.payrollRepo.GetEntriesByPeriod(periodID); err != nil {
		return nil, fmt.Errorf("failed to get payroll entries: %w", err)
	}
	return period, nil
}

func (s *payrollService) GetPeriods(status *string, page, pageSize int) ([]models.PayrollPeriod, int, error) {
	page, pageSize = normalizePaging(page, pageSize)
	status = trimmedOrNil(status)
	if status != nil && !models.IsValidPayrollStatus(*status) {
		return nil, 0, &ValidationError{Fields: map[string]string{"status": "must be one of draft, finalized, paid"}}
	}
	periods, total, err := s.payrollRepo.GetPeriods(status, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get payroll periods: %w", err)
	}
	return periods, total, nil
}

// lockDraftPeriod row-locks a period and refuses anything but a draft.
func (s *payrollService) lockDraftPeriod(exec repositories.SQLExecutor, periodID int64) (*models.PayrollPeriod, error) {
	period, err := s.payrollRepo.GetPeriodForUpdate(exec, periodID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to lock payroll period: %w", err)
	}
	if period.Status != models.PayrollStatusDraft {
		return nil, fmt.Errorf("%w: period %d is %s", ErrPeriodNotDraft, periodID, period.Status)
	}
	return period, nil
}

// UpdateEntry edits one entry of a draft period; pay and the period total are recomputed in the same transaction.
func (s *payrollService) UpdateEntry(periodID, entryID int64, req UpdateEntryRequest) (*models.PayrollPeriod, error) {
	checks := fieldChecks{}
	checks.nonNegative("hours_regular", req.HoursRegular)
	checks.nonNegative("hours_overtime", req.HoursOvertime)
	checks.nonNegative("bonuses", req.Bonuses)
	checks.nonNegative("deductions", req.Deductions)
	if err := checks.err(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		if _, err := s.lockDraftPeriod(exec, periodID); err != nil {
			return err
		}
		entry, err := s.payrollRepo.GetEntryByID(exec, periodID, entryID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrPayrollEntryMissing
			}
			return fmt.Errorf("failed to get payroll entry: %w", err)
		}
		if req.HoursRegular != nil {
			entry.HoursRegular = models.Money(*req.HoursRegular)
		}
		if req.HoursOvertime != nil {
			entry.HoursOvertime = models.Money(*req.HoursOvertime)
		}
		if req.Bonuses != nil {
			entry.Bonuses = models.Money(*req.Bonuses)
		}
		if req.Deductions != nil {
			entry.Deductions = models.Money(*req.Deductions)
		}
		payroll.Recompute(entry)
		if err := s.payrollRepo.UpdateEntry(exec, entry); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrPayrollEntryMissing
			}
			return fmt.Errorf("failed to update payroll entry: %w", err)
		}
		return s.syncPeriodTotal(exec, periodID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetPeriodByID(periodID)
}

// UpdatePeriodStatus allows only draft to finalized and finalized to paid.
func (s *payrollService) UpdatePeriodStatus(periodID int64, status string) (*models.PayrollPeriod, error) {
	status = strings.TrimSpace(strings.ToLower(status))
	if !models.IsValidPayrollStatus(status) {
		return nil, fmt.Errorf("%w: %q is not a payroll status", ErrInvalidStatus, status)
	}

	var from string
	err := s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		period, err := s.payrollRepo.GetPeriodForUpdate(exec, periodID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrPeriodNotFound
			}
			return fmt.Errorf("failed to lock payroll period: %w", err)
		}
		from = period.Status
		next, ok := models.NextPayrollStatus(period.Status)
		if !ok || next != status {
			return fmt.Errorf("%w: cannot move payroll period from %s to %s", ErrInvalidStatus, period.Status, status)
		}
		if err := s.payrollRepo.UpdatePeriodStatus(exec, periodID, status); err != nil {
			return fmt.Errorf("failed to update payroll period status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Payroll period status changed", map[string]interface{}{"period_id": periodID, "from": from, "to": status})
	return s.GetPeriodByID(periodID)
}

func (s *payrollService) DeletePeriod(periodID int64) error {
	return s.tx.WithinTx(func(exec repositories.SQLExecutor) error {
		if _, err := s.lockDraftPeriod(exec, periodID); err != nil {
			return err
		}
		if err := s.payrollRepo.DeletePeriod(exec, periodID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrPeriodNotFound
			}
			return fmt.Errorf("failed to delete payroll period: %w", err)
		}
		return nil
	})
}

func (s *payrollService) ExportPeriod(periodID int64) ([]byte, string, error) {
	period, err := s.GetPeriodByID(periodID)
	if err != nil {
		return nil, "", err
	}
	data, err := exports.PayrollWorkbook(period, period.Entries)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build payroll workbook: %w", err)
	}
	return data, exports.PayrollWorkbookName(period), nil
}
