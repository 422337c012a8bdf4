package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"gioservice_backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DashboardRepository runs the aggregate queries behind the back-office summary.
type DashboardRepository interface {
	CountJobsByStatus() (map[string]int, error)
	CountJobsScheduledBetween(start, end models.Date, statuses []string) (int, error)
	SumPaidRevenueBetween(from, to time.Time) (decimal.Decimal, error)
}

type dashboardRepository struct {
	db *sql.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository.
func NewDashboardRepository(db *sql.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) CountJobsByStatus() (map[string]int, error) {
	counts := make(map[string]int, len(models.JobStatuses))
	for _, s := range models.JobStatuses {
		counts[s] = 0
	}

	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%w: counting jobs by status: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%w: scanning job status count: %v", ErrDatabaseError, err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating job status counts: %v", ErrDatabaseError, err)
	}
	return counts, nil
}

// CountJobsScheduledBetween counts jobs in statuses whose scheduled_date falls in [start, end].
func (r *dashboardRepository) CountJobsScheduledBetween(start, end models.Date, statuses []string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM jobs
	          WHERE scheduled_date >= $1 AND scheduled_date <= $2 AND status = ANY($3)`
	err := r.db.QueryRow(query, start, end, pq.Array(statuses)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting scheduled jobs: %v", ErrDatabaseError, err)
	}
	return n, nil
}

// SumPaidRevenueBetween sums total_amount of paid jobs completed in [from, to).
// Jobs without a completion stamp fall back to their last update time.
func (r *dashboardRepository) SumPaidRevenueBetween(from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(total_amount), 0) FROM jobs
	          WHERE status = $1 AND COALESCE(completed_at, updated_at) >= $2 AND COALESCE(completed_at, updated_at) < $3`
	if err := r.db.QueryRow(query, models.JobStatusPaid, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%w: summing paid revenue: %v", ErrDatabaseError, err)
	}
	return total, nil
}
