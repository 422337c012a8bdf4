package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
)

// PayrollRepository defines the interface for payroll period and entry database operations.
type PayrollRepository interface {
	CreatePeriod(executor SQLExecutor, period *models.PayrollPeriod) (int64, error)
	GetPeriodByID(id int64) (*models.PayrollPeriod, error)
	GetPeriodForUpdate(executor SQLExecutor, id int64) (*models.PayrollPeriod, error)
	FindPeriodByRange(executor SQLExecutor, start, end models.Date) (*models.PayrollPeriod, error)
	GetPeriods(status *string, page, pageSize int) ([]models.PayrollPeriod, int, error)
	UpdatePeriodStatus(executor SQLExecutor, id int64, status string) error
	UpdatePeriodTotal(executor SQLExecutor, id int64, total decimal.Decimal) error
	DeletePeriod(executor SQLExecutor, id int64) error
	CountPeriodsByStatus(status string) (int, error)

	CreateEntry(executor SQLExecutor, entry *models.PayrollEntry) (int64, error)
	GetEntryByID(executor SQLExecutor, periodID, entryID int64) (*models.PayrollEntry, error)
	GetEntriesByPeriod(periodID int64) ([]models.PayrollEntry, error)
	UpdateEntry(executor SQLExecutor, entry *models.PayrollEntry) error
	SumNetPay(executor SQLExecutor, periodID int64) (decimal.Decimal, error)
}

type payrollRepository struct {
	db *sql.DB
}

// NewPayrollRepository creates a new instance of PayrollRepository.
func NewPayrollRepository(db *sql.DB) PayrollRepository {
	return &payrollRepository{db: db}
}

const periodColumns = `p.id, p.period_type, p.start_date, p.end_date, p.status, p.total_amount, p.notes, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM payroll_entries e WHERE e.period_id = p.id)`

func scanPeriod(s scanner, p *models.PayrollPeriod, extra ...interface{}) error {
	dest := []interface{}{
		&p.ID, &p.PeriodType, &p.StartDate, &p.EndDate, &p.Status, &p.TotalAmount, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt, &p.EntryCount,
	}
	return s.Scan(append(dest, extra...)...)
}

const entryColumns = `e.id, e.period_id, e.worker_id, e.hours_regular, e.hours_overtime, e.rate_regular, e.rate_overtime,
	e.bonuses, e.deductions, e.gross_pay, e.net_pay, e.created_at, e.updated_at, w.full_name`

func scanEntry(s scanner, e *models.PayrollEntry) error {
	return s.Scan(
		&e.ID, &e.PeriodID, &e.WorkerID, &e.HoursRegular, &e.HoursOvertime, &e.RateRegular, &e.RateOvertime,
		&e.Bonuses, &e.Deductions, &e.GrossPay, &e.NetPay, &e.CreatedAt, &e.UpdatedAt, &e.WorkerName,
	)
}

func (r *payrollRepository) CreatePeriod(executor SQLExecutor, period *models.PayrollPeriod) (int64, error) {
	query := `INSERT INTO payroll_periods (period_type, start_date, end_date, status, total_amount, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	currentTime := time.Now()
	period.CreatedAt = currentTime
	period.UpdatedAt = currentTime
	if period.Status == "" {
		period.Status = models.PayrollStatusDraft
	}

	err := executor.QueryRow(query,
		period.PeriodType, period.StartDate, period.EndDate, period.Status, period.TotalAmount, period.Notes,
		period.CreatedAt, period.UpdatedAt,
	).Scan(&period.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating payroll period")
	}
	return period.ID, nil
}

func (r *payrollRepository) GetPeriodByID(id int64) (*models.PayrollPeriod, error) {
	return r.getPeriod(r.db, id, false)
}

func (r *payrollRepository) GetPeriodForUpdate(executor SQLExecutor, id int64) (*models.PayrollPeriod, error) {
	return r.getPeriod(executor, id, true)
}

func (r *payrollRepository) getPeriod(executor SQLExecutor, id int64, forUpdate bool) (*models.PayrollPeriod, error) {
	period := &models.PayrollPeriod{}
	query := `SELECT ` + periodColumns + ` FROM payroll_periods p WHERE p.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	if err := scanPeriod(executor.QueryRow(query, id), period); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting payroll period by ID %d: %v", ErrDatabaseError, id, err)
	}
	return period, nil
}

// FindPeriodByRange returns the period covering exactly [start, end], or ErrNotFound.
func (r *payrollRepository) FindPeriodByRange(executor SQLExecutor, start, end models.Date) (*models.PayrollPeriod, error) {
	if executor == nil {
		executor = r.db
	}
	period := &models.PayrollPeriod{}
	query := `SELECT ` + periodColumns + ` FROM payroll_periods p WHERE p.start_date = $1 AND p.end_date = $2
	          ORDER BY p.id LIMIT 1`
	if err := scanPeriod(executor.QueryRow(query, start, end), period); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding payroll period %s to %s: %v", ErrDatabaseError, start, end, err)
	}
	return period, nil
}

func (r *payrollRepository) GetPeriods(status *string, page, pageSize int) ([]models.PayrollPeriod, int, error) {
	periods := []models.PayrollPeriod{}
	totalCount := 0

	where := newWhereBuilder()
	if status != nil && *status != "" {
		where.add("p.status = ?", *status)
	}
	query := `SELECT ` + periodColumns + `, COUNT(*) OVER() AS total_count FROM payroll_periods p` +
		where.clause() + " ORDER BY p.start_date DESC, p.id DESC" +
		paginate(&where.args, &where.argCount, page, pageSize)

	rows, err := r.db.Query(query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying payroll periods: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PayrollPeriod
		if err := scanPeriod(rows, &p, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning payroll period: %v", ErrDatabaseError, err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating payroll periods: %v", ErrDatabaseError, err)
	}
	return periods, totalCount, nil
}

func (r *payrollRepository) UpdatePeriodStatus(executor SQLExecutor, id int64, status string) error {
	result, err := executor.Exec(`UPDATE payroll_periods SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating status of payroll period %d", id))
	}
	return expectAffected(result, fmt.Sprintf("updating status of payroll period %d", id))
}

func (r *payrollRepository) UpdatePeriodTotal(executor SQLExecutor, id int64, total decimal.Decimal) error {
	result, err := executor.Exec(`UPDATE payroll_periods SET total_amount = $1, updated_at = $2 WHERE id = $3`, total, time.Now(), id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating total of payroll period %d", id))
	}
	return expectAffected(result, fmt.Sprintf("updating total of payroll period %d", id))
}

// DeletePeriod removes a period; its entries cascade.
func (r *payrollRepository) DeletePeriod(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM payroll_periods WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting payroll period %d", id))
	}
	return expectAffected(result, fmt.Sprintf("deleting payroll period %d", id))
}

func (r *payrollRepository) CountPeriodsByStatus(status string) (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM payroll_periods WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting payroll periods: %v", ErrDatabaseError, err)
	}
	return n, nil
}

func (r *payrollRepository) CreateEntry(executor SQLExecutor, entry *models.PayrollEntry) (int64, error) {
	query := `INSERT INTO payroll_entries (period_id, worker_id, hours_regular, hours_overtime, rate_regular, rate_overtime,
	            bonuses, deductions, gross_pay, net_pay, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	currentTime := time.Now()
	entry.CreatedAt = currentTime
	entry.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		entry.PeriodID, entry.WorkerID, entry.HoursRegular, entry.HoursOvertime, entry.RateRegular, entry.RateOvertime,
		entry.Bonuses, entry.Deductions, entry.GrossPay, entry.NetPay, entry.CreatedAt, entry.UpdatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("creating payroll entry for worker %d", entry.WorkerID))
	}
	return entry.ID, nil
}

func (r *payrollRepository) GetEntryByID(executor SQLExecutor, periodID, entryID int64) (*models.PayrollEntry, error) {
	if executor == nil {
		executor = r.db
	}
	entry := &models.PayrollEntry{}
	query := `SELECT ` + entryColumns + `
	          FROM payroll_entries e JOIN workers w ON w.id = e.worker_id
	          WHERE e.id = $1 AND e.period_id = $2`
	if err := scanEntry(executor.QueryRow(query, entryID, periodID), entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting payroll entry %d: %v", ErrDatabaseError, entryID, err)
	}
	return entry, nil
}

func (r *payrollRepository) GetEntriesByPeriod(periodID int64) ([]models.PayrollEntry, error) {
	query := `SELECT ` + entryColumns + `
	          FROM payroll_entries e JOIN workers w ON w.id = e.worker_id
	          WHERE e.period_id = $1
	          ORDER BY w.full_name ASC, e.id ASC`
	rows, err := r.db.Query(query, periodID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payroll entries for period %d: %v", ErrDatabaseError, periodID, err)
	}
	defer rows.Close()

	entries := []models.PayrollEntry{}
	for rows.Next() {
		var e models.PayrollEntry
		if err := scanEntry(rows, &e); err != nil {
			return nil, fmt.Errorf("%w: scanning payroll entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payroll entries: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

func (r *payrollRepository) UpdateEntry(executor SQLExecutor, entry *models.PayrollEntry) error {
	query := `UPDATE payroll_entries SET
	            hours_regular = $1, hours_overtime = $2, rate_regular = $3, rate_overtime = $4,
	            bonuses = $5, deductions = $6, gross_pay = $7, net_pay = $8, updated_at = $9
	          WHERE id = $10 AND period_id = $11`

	entry.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		entry.HoursRegular, entry.HoursOvertime, entry.RateRegular, entry.RateOvertime,
		entry.Bonuses, entry.Deductions, entry.GrossPay, entry.NetPay, entry.UpdatedAt,
		entry.ID, entry.PeriodID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating payroll entry %d", entry.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating payroll entry %d", entry.ID))
}

// SumNetPay returns the sum of net_pay over a period's entries.
func (r *payrollRepository) SumNetPay(executor SQLExecutor, periodID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := executor.QueryRow(`SELECT COALESCE(SUM(net_pay), 0) FROM payroll_entries WHERE period_id = $1`, periodID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: summing net pay for period %d: %v", ErrDatabaseError, periodID, err)
	}
	return total, nil
}
