package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gioservice_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Shared Service Errors ---
var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidStatus = errors.New("invalid status")
	ErrLockBusy      = errors.New("resource is busy, try again")
)

// ValidationError carries one rule name or message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+": "+e.Fields[n])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// fieldChecks accumulates per-field failures for one request.
type fieldChecks map[string]string

func (f fieldChecks) fail(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldChecks) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f.fail(field, "required")
	}
}

func (f fieldChecks) nonNegative(field string, d *decimal.Decimal) {
	if d != nil && d.IsNegative() {
		f.fail(field, "must not be negative")
	}
}

func (f fieldChecks) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(f)}
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePaging applies the default page and caps the page size.
func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.NewNullString(*s)
}

func decOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
