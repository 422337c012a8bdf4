package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gioservice_backend/internal/models"
)

func newPublicFixture() (*fakeJobRepo, PublicService) {
	jobs := newFakeJobRepo()
	areas := newFakeAreaRepo()
	areas.areas[1] = models.ServiceArea{ID: 1, Name: "Miami-Dade", IsActive: true}
	areas.owners["33101"] = 1
	return jobs, NewPublicService(jobs, fakePhotoRepo{}, areas, nil, nil, nil, "US")
}

func TestCreateBookingNeedsPhoneOrEmail(t *testing.T) {
	jobs, svc := newPublicFixture()
	base := PublicBookingRequest{
		CustomerName: "Rosa",
		AddressLine:  "1 Main St",
		ZipCode:      "33101",
		ServiceType:  "Drywall",
	}

	cases := []struct {
		name  string
		phone *string
		email *string
		want  error
	}{
		{"no contact", nil, nil, ErrValidation},
		{"blank contact", strP("  "), strP(""), ErrValidation},
		{"bad email only", nil, strP("rosa@"), ErrValidation},
		{"phone only", strP("(202) 456-1111"), nil, nil},
		{"email only", nil, strP("rosa@example.com"), nil},
	}
	for _, tc := range cases {
		req := base
		req.CustomerPhone, req.CustomerEmail = tc.phone, tc.email
		if _, err := svc.CreateBooking(context.Background(), req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
	if len(jobs.jobs) != 2 {
		t.Fatalf("jobs created: got %d, want 2", len(jobs.jobs))
	}
}

func TestCreateBookingCreatesTaggedLead(t *testing.T) {
	jobs, svc := newPublicFixture()
	preferred := models.NewDate(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))

	booking, err := svc.CreateBooking(context.Background(), PublicBookingRequest{
		CustomerName:  " Rosa ",
		CustomerPhone: strP("202-456-1111"),
		AddressLine:   "1 Main St",
		ZipCode:       "33101-0042",
		ServiceType:   "Drywall",
		PreferredDate: &preferred,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if !booking.Covered || booking.ServiceAreaName == nil || *booking.ServiceAreaName != "Miami-Dade" {
		t.Fatalf("unexpected booking: %+v", booking)
	}
	job := jobs.jobs[booking.Reference]
	if job.Status != models.JobStatusLead || job.CustomerName != "Rosa" {
		t.Fatalf("job: status %q, name %q", job.Status, job.CustomerName)
	}
	if job.ServiceAreaID == nil || *job.ServiceAreaID != 1 || *job.ZipCode != "33101" {
		t.Fatalf("area tag: %v zip %v", job.ServiceAreaID, job.ZipCode)
	}
	if *job.CustomerPhone != "+12024561111" {
		t.Fatalf("phone: %q", *job.CustomerPhone)
	}

	uncovered, err := svc.CreateBooking(context.Background(), PublicBookingRequest{
		CustomerName:  "Ana",
		CustomerEmail: strP("ana@example.com"),
		AddressLine:   "9 Bay Rd",
		ZipCode:       "10001",
		ServiceType:   "Painting",
	})
	if err != nil {
		t.Fatalf("uncovered booking: %v", err)
	}
	if uncovered.Covered || uncovered.ServiceAreaName != nil {
		t.Fatalf("uncovered zip reported as covered: %+v", uncovered)
	}
}

func TestGetPublicJobHidesUnpublished(t *testing.T) {
	jobs, svc := newPublicFixture()
	jobs.jobs[1] = models.Job{ID: 1, Status: models.JobStatusCompleted, IsPublic: true}
	jobs.jobs[2] = models.Job{ID: 2, Status: models.JobStatusCompleted, IsPublic: false}
	jobs.jobs[3] = models.Job{ID: 3, Status: models.JobStatusInProgress, IsPublic: true}
	jobs.jobs[4] = models.Job{ID: 4, Status: models.JobStatusPaid, IsPublic: true}

	cases := []struct {
		name string
		id   int64
		want error
	}{
		{"published and completed", 1, nil},
		{"not published", 2, ErrPublicJobNotFound},
		{"published but unfinished", 3, ErrPublicJobNotFound},
		{"published and paid", 4, nil},
		{"missing", 99, ErrPublicJobNotFound},
	}
	for _, tc := range cases {
		job, err := svc.GetJob(tc.id)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
		if err == nil && (job.ID != tc.id || job.Photos == nil) {
			t.Fatalf("%s: unexpected view %+v", tc.name, job)
		}
	}
}
