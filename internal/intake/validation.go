package intake

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gioservice_backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrStepInvalid is matched by every *StepError.
var ErrStepInvalid = errors.New("intake step validation failed")

// StepError lists the failing fields of one step, keyed by JSON field name.
type StepError struct {
	Step   int
	Fields map[string]string
}

func (e *StepError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("step %d is incomplete: %s", e.Step, strings.Join(names, ", "))
}

func (e *StepError) Unwrap() error {
	return ErrStepInvalid
}

type customerStep struct {
	CustomerName  string `json:"customer_name" validate:"required"`
	IsNewClient   bool   `json:"is_new_client"`
	ClientID      int64  `json:"client_id" validate:"required_unless=IsNewClient true"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
}

type addressStep struct {
	AddressLine string `json:"address_line" validate:"required"`
	ZipCode     string `json:"zip_code" validate:"required,zip5"`
}

type detailsStep struct {
	ServiceType string  `json:"service_type" validate:"required"`
	Status      string  `json:"status" validate:"omitempty,oneof=lead scheduled in_progress completed invoiced paid"`
	WorkerIDs   []int64 `json:"worker_ids" validate:"dive,gt=0"`
}

type pricingStep struct {
	TravelFee      decimal.Decimal `json:"travel_fee" validate:"gte=0"`
	LaborTotal     decimal.Decimal `json:"labor_total" validate:"gte=0"`
	MaterialsTotal decimal.Decimal `json:"materials_total" validate:"gte=0"`
	OtherFees      decimal.Decimal `json:"other_fees" validate:"gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("zip5", func(fl validator.FieldLevel) bool {
		return models.IsValidZip(fl.Field().String())
	})
	return v
}

// ValidateStep checks only the required fields of the given step.
func ValidateStep(d *Draft, step int) error {
	var target interface{}
	switch step {
	case StepCustomer:
		s := customerStep{
			CustomerName:  strings.TrimSpace(d.CustomerName),
			IsNewClient:   d.IsNewClient,
			CustomerEmail: d.CustomerEmail,
		}
		if d.ClientID != nil {
			s.ClientID = *d.ClientID
		}
		target = s
	case StepAddress:
		target = addressStep{AddressLine: strings.TrimSpace(d.AddressLine), ZipCode: d.ZipCode}
	case StepDetails:
		target = detailsStep{ServiceType: strings.TrimSpace(d.ServiceType), Status: d.Status, WorkerIDs: d.WorkerIDs}
	case StepPricing:
		target = pricingStep{
			TravelFee:      d.TravelFee,
			LaborTotal:     d.LaborTotal,
			MaterialsTotal: d.MaterialsTotal,
			OtherFees:      d.OtherFees,
		}
	default:
		return fmt.Errorf("unknown intake step %d", step)
	}

	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if i := strings.Index(name, "["); i > 0 {
			name = name[:i]
		}
		fields[name] = fe.Tag()
	}
	return &StepError{Step: step, Fields: fields}
}

// ValidateAll checks every step in order and returns the first failure.
func ValidateAll(d *Draft) error {
	for step := FirstStep; step <= LastStep; step++ {
		if err := ValidateStep(d, step); err != nil {
			return err
		}
	}
	return nil
}
