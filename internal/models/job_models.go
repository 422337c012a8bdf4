package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Job status values, in lifecycle order.
const (
	JobStatusLead       = "lead"
	JobStatusScheduled  = "scheduled"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusInvoiced   = "invoiced"
	JobStatusPaid       = "paid"
)

// JobStatuses lists every valid job status.
var JobStatuses = []string{
	JobStatusLead, JobStatusScheduled, JobStatusInProgress,
	JobStatusCompleted, JobStatusInvoiced, JobStatusPaid,
}

// ConfirmedJobStatuses are the statuses whose scheduled_date is a booked visit.
// On a lead the date is only the customer's preference.
var ConfirmedJobStatuses = []string{
	JobStatusScheduled, JobStatusInProgress,
	JobStatusCompleted, JobStatusInvoiced, JobStatusPaid,
}

// IsValidJobStatus reports whether s is a known job status.
func IsValidJobStatus(s string) bool {
	for _, v := range JobStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsFinishedJobStatus reports whether the work on a job is done (completed, invoiced or paid).
func IsFinishedJobStatus(s string) bool {
	return s == JobStatusCompleted || s == JobStatusInvoiced || s == JobStatusPaid
}

// Job represents one piece of work for a customer.
type Job struct {
	ID              int64           `json:"id"`
	ClientID        *int64          `json:"client_id,omitempty"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   *string         `json:"customer_phone,omitempty"`
	CustomerEmail   *string         `json:"customer_email,omitempty"`
	AddressLine     *string         `json:"address_line,omitempty"`
	City            *string         `json:"city,omitempty"`
	State           *string         `json:"state,omitempty"`
	ZipCode         *string         `json:"zip_code,omitempty"`
	ServiceAreaID   *int64          `json:"service_area_id,omitempty"`
	ServiceType     *string         `json:"service_type,omitempty"`
	Description     *string         `json:"description,omitempty"`
	Status          string          `json:"status"`
	ScheduledDate   *Date           `json:"scheduled_date,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	TravelFee       decimal.Decimal `json:"travel_fee"`
	LaborTotal      decimal.Decimal `json:"labor_total"`
	MaterialsTotal  decimal.Decimal `json:"materials_total"`
	OtherFees       decimal.Decimal `json:"other_fees"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	IsPublic        bool            `json:"is_public"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ServiceAreaName *string         `json:"service_area_name,omitempty"`

	Workers   []JobWorker   `json:"workers,omitempty"`
	Materials []JobMaterial `json:"materials,omitempty"`
	Photos    []JobPhoto    `json:"photos,omitempty"`
}

// AddressSummary joins the non-empty address parts on one line.
func (j *Job) AddressSummary() string {
	parts := make([]string, 0, 3)
	for _, p := range []*string{j.AddressLine, j.City} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	var tail []string
	for _, p := range []*string{j.State, j.ZipCode} {
		if p != nil && strings.TrimSpace(*p) != "" {
			tail = append(tail, strings.TrimSpace(*p))
		}
	}
	if len(tail) > 0 {
		parts = append(parts, strings.Join(tail, " "))
	}
	return strings.Join(parts, ", ")
}

// JobPricing groups the four price components of a job.
type JobPricing struct {
	TravelFee      decimal.Decimal `json:"travel_fee"`
	LaborTotal     decimal.Decimal `json:"labor_total"`
	MaterialsTotal decimal.Decimal `json:"materials_total"`
	OtherFees      decimal.Decimal `json:"other_fees"`
}

// Total is the sum of the four components, each rounded to cents first.
func (p JobPricing) Total() decimal.Decimal {
	return Money(p.TravelFee).
		Add(Money(p.LaborTotal)).
		Add(Money(p.MaterialsTotal)).
		Add(Money(p.OtherFees))
}

// Pricing returns the job's price components.
func (j *Job) Pricing() JobPricing {
	return JobPricing{
		TravelFee:      j.TravelFee,
		LaborTotal:     j.LaborTotal,
		MaterialsTotal: j.MaterialsTotal,
		OtherFees:      j.OtherFees,
	}
}

// RecalculateTotal rounds the price components to cents and sets TotalAmount to their sum.
// It must run before every write of a job.
func (j *Job) RecalculateTotal() {
	j.TravelFee = Money(j.TravelFee)
	j.LaborTotal = Money(j.LaborTotal)
	j.MaterialsTotal = Money(j.MaterialsTotal)
	j.OtherFees = Money(j.OtherFees)
	j.TotalAmount = j.Pricing().Total()
}

// Money rounds d to two decimal places.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// JobSummary is the compact job view embedded in other listings.
type JobSummary struct {
	ID            int64   `json:"id"`
	CustomerName  string  `json:"customer_name"`
	ServiceType   *string `json:"service_type,omitempty"`
	Status        string  `json:"status"`
	ScheduledDate *Date   `json:"scheduled_date,omitempty"`
}

// JobFilter narrows job listings.
type JobFilter struct {
	Status        *string
	ClientID      *int64
	ServiceAreaID *int64
	From          *Date
	To            *Date
	Search        *string
	PublicOnly    bool
	FinishedOnly  bool
	Page          int
	PageSize      int
}
