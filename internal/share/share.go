// Package share builds WhatsApp deep links for job summaries and normalizes phone numbers.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gioservice_backend/internal/models"

	"github.com/ttacon/libphonenumber"
)

const whatsAppBase = "https://api.whatsapp.com/send/"

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone parses raw in region and formats it as E.164.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}
	num, err := libphonenumber.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

// NormalizeOrKeep returns the E.164 form when raw parses, else raw trimmed.
func NormalizeOrKeep(raw, region string) string {
	if p, err := NormalizePhone(raw, region); err == nil {
		return p
	}
	return strings.TrimSpace(raw)
}

// Digits keeps only the ASCII digits of phone.
func Digits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppDigits returns the international digits for phone, falling back to its raw digits.
func WhatsAppDigits(phone, region string) string {
	if p, err := NormalizePhone(phone, region); err == nil {
		return Digits(p)
	}
	return Digits(phone)
}

// encodeText escapes like encodeURIComponent: spaces become %20, not '+'.
func encodeText(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// WhatsAppLink builds https://api.whatsapp.com/send/?phone=<digits>&text=<message>.
// An empty phone leaves the recipient for the user to pick.
func WhatsAppLink(phoneDigits, message string) string {
	return whatsAppBase + "?phone=" + Digits(phoneDigits) + "&text=" + encodeText(message)
}

// PublicJobURL is the public portfolio page of a job.
func PublicJobURL(siteURL string, jobID int64) string {
	return fmt.Sprintf("%s/trabajos/%d/public", strings.TrimRight(siteURL, "/"), jobID)
}

// JobSummaryMessage describes a job for the customer.
func JobSummaryMessage(company string, job *models.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - job #%d\n", company, job.ID)
	if job.ServiceType != nil && *job.ServiceType != "" {
		fmt.Fprintf(&b, "Service: %s\n", *job.ServiceType)
	}
	fmt.Fprintf(&b, "Customer: %s\n", job.CustomerName)
	if addr := job.AddressSummary(); addr != "" {
		fmt.Fprintf(&b, "Address: %s\n", addr)
	}
	if job.ScheduledDate != nil {
		fmt.Fprintf(&b, "Date: %s\n", job.ScheduledDate)
	}
	fmt.Fprintf(&b, "Status: %s\n", job.Status)
	fmt.Fprintf(&b, "Total: $%s", models.Money(job.TotalAmount).StringFixed(2))
	return b.String()
}

// PublicJobMessage invites the recipient to the public page of a job.
func PublicJobMessage(company, siteURL string, job *models.Job) string {
	return fmt.Sprintf("See the work %s did for this project: %s", company, PublicJobURL(siteURL, job.ID))
}
