package models

import (
	"regexp"
	"strings"
	"time"
)

var zipPattern = regexp.MustCompile(`^[0-9]{5}$`)

// ServiceArea is a named zone covered by the company.
type ServiceArea struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	Zips        []string  `json:"zips"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeZip trims a ZIP code and keeps the five-digit prefix of ZIP+4 input.
func NormalizeZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if len(zip) == 10 && zip[5] == '-' {
		zip = zip[:5]
	}
	return zip
}

// IsValidZip reports whether zip is a five-digit US ZIP code.
func IsValidZip(zip string) bool {
	return zipPattern.MatchString(zip)
}
