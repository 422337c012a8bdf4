// Package intake holds the four-step job intake wizard: the draft record,
// its step gates and the stores that keep drafts between requests.
package intake

import (
	"strings"
	"time"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
)

const (
	StepCustomer = 1
	StepAddress  = 2
	StepDetails  = 3
	StepPricing  = 4

	FirstStep = StepCustomer
	LastStep  = StepPricing
)

// Draft is the server-held state of one wizard session. It carries the fields of every step.
type Draft struct {
	ID        string    `json:"id"`
	Step      int       `json:"step"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// step 1
	IsNewClient   bool   `json:"is_new_client"`
	ClientID      *int64 `json:"client_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`

	// step 2
	AddressLine     string  `json:"address_line"`
	City            string  `json:"city"`
	State           string  `json:"state"`
	ZipCode         string  `json:"zip_code"`
	ServiceAreaID   *int64  `json:"service_area_id"`
	ServiceAreaName *string `json:"service_area_name"`
	ZipWarning      *string `json:"zip_warning"`

	// step 3
	ServiceType   string       `json:"service_type"`
	Description   string       `json:"description"`
	ScheduledDate *models.Date `json:"scheduled_date"`
	Status        string       `json:"status"`
	WorkerIDs     []int64      `json:"worker_ids"`

	// step 4; TotalAmount is derived
	TravelFee      decimal.Decimal `json:"travel_fee"`
	LaborTotal     decimal.Decimal `json:"labor_total"`
	MaterialsTotal decimal.Decimal `json:"materials_total"`
	OtherFees      decimal.Decimal `json:"other_fees"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// NewDraft returns an empty draft positioned at step 1.
func NewDraft(id string, now time.Time) *Draft {
	d := &Draft{
		ID:        id,
		Step:      FirstStep,
		CreatedAt: now,
		UpdatedAt: now,
		WorkerIDs: []int64{},
	}
	d.RecalculateTotal()
	return d
}

// Pricing returns the four price components.
func (d *Draft) Pricing() models.JobPricing {
	return models.JobPricing{
		TravelFee:      d.TravelFee,
		LaborTotal:     d.LaborTotal,
		MaterialsTotal: d.MaterialsTotal,
		OtherFees:      d.OtherFees,
	}
}

// RecalculateTotal keeps TotalAmount equal to the sum of the price components.
func (d *Draft) RecalculateTotal() {
	d.TotalAmount = d.Pricing().Total()
}

// UniqueWorkerIDs returns the selected worker ids in first-seen order without duplicates or non-positive ids.
func (d *Draft) UniqueWorkerIDs() []int64 {
	seen := make(map[int64]struct{}, len(d.WorkerIDs))
	out := make([]int64, 0, len(d.WorkerIDs))
	for _, id := range d.WorkerIDs {
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Patch is a partial update to a draft. Nil fields are left untouched, so fields of
// any step can be edited without clearing the others.
type Patch struct {
	IsNewClient   *bool   `json:"is_new_client"`
	ClientID      *int64  `json:"client_id"`
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	CustomerEmail *string `json:"customer_email"`

	AddressLine *string `json:"address_line"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	ZipCode     *string `json:"zip_code"`

	ServiceType   *string         `json:"service_type"`
	Description   *string         `json:"description"`
	ScheduledDate models.NullDate `json:"scheduled_date"`
	Status        *string         `json:"status"`
	WorkerIDs     *[]int64        `json:"worker_ids"`

	TravelFee      *decimal.Decimal `json:"travel_fee"`
	LaborTotal     *decimal.Decimal `json:"labor_total"`
	MaterialsTotal *decimal.Decimal `json:"materials_total"`
	OtherFees      *decimal.Decimal `json:"other_fees"`

	// Accepted so clients may echo the whole draft back; always ignored.
	TotalAmount *decimal.Decimal `json:"total_amount"`
}

// Apply merges p into d and recalculates the total. It reports whether the ZIP code changed.
func (p Patch) Apply(d *Draft) (zipChanged bool) {
	if p.IsNewClient != nil {
		d.IsNewClient = *p.IsNewClient
	}
	if p.ClientID != nil {
		id := *p.ClientID
		d.ClientID = &id
	}
	setString(&d.CustomerName, p.CustomerName)
	setString(&d.CustomerPhone, p.CustomerPhone)
	setString(&d.CustomerEmail, p.CustomerEmail)

	setString(&d.AddressLine, p.AddressLine)
	setString(&d.City, p.City)
	setString(&d.State, p.State)
	if p.ZipCode != nil {
		zip := models.NormalizeZip(*p.ZipCode)
		zipChanged = zip != d.ZipCode
		d.ZipCode = zip
	}

	setString(&d.ServiceType, p.ServiceType)
	setString(&d.Description, p.Description)
	if p.ScheduledDate.Set {
		d.ScheduledDate = p.ScheduledDate.Value
	}
	setString(&d.Status, p.Status)
	if p.WorkerIDs != nil {
		d.WorkerIDs = append([]int64{}, (*p.WorkerIDs)...)
	}

	setDecimal(&d.TravelFee, p.TravelFee)
	setDecimal(&d.LaborTotal, p.LaborTotal)
	setDecimal(&d.MaterialsTotal, p.MaterialsTotal)
	setDecimal(&d.OtherFees, p.OtherFees)

	d.RecalculateTotal()
	return zipChanged
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setDecimal(dst *decimal.Decimal, src *decimal.Decimal) {
	if src != nil {
		*dst = *src
	}
}
