package services

import (
	"errors"
	"testing"

	"gioservice_backend/internal/models"
)

func TestCreateWorkerDefaultsAndValidation(t *testing.T) {
	repo := &fakeWorkerRepo{workers: map[int64]models.Worker{}}
	svc := NewWorkerService(repo, &fakeAssignmentRepo{}, nil, "US")

	w, err := svc.CreateWorker(CreateWorkerRequest{FullName: " Luis ", Phone: strP("202-456-1111"), HourlyRate: dec("22.50")})
	if err != nil {
		t.Fatalf("create worker: %v", err)
	}
	if w.PayType != models.PayTypeHourly || w.Status != models.WorkerStatusActive {
		t.Fatalf("defaults: pay type %q, status %q", w.PayType, w.Status)
	}
	if w.FullName != "Luis" || w.Phone == nil || *w.Phone != "+12024561111" {
		t.Fatalf("normalized fields: %q %v", w.FullName, w.Phone)
	}

	cases := []struct {
		name string
		req  CreateWorkerRequest
	}{
		{"blank name", CreateWorkerRequest{FullName: " "}},
		{"negative rate", CreateWorkerRequest{FullName: "Ana", HourlyRate: dec("-1")}},
		{"unknown pay type", CreateWorkerRequest{FullName: "Ana", PayType: "commission"}},
		{"unknown status", CreateWorkerRequest{FullName: "Ana", Status: "retired"}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateWorker(tc.req); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: got %v, want ErrValidation", tc.name, err)
		}
	}
	if len(repo.workers) != 1 {
		t.Fatalf("invalid workers were stored: %d", len(repo.workers))
	}
}

func TestDeleteWorkerBlockedByAssignments(t *testing.T) {
	repo := &fakeWorkerRepo{
		workers:  map[int64]models.Worker{1: {ID: 1, FullName: "Luis"}, 2: {ID: 2, FullName: "Ana"}},
		assigned: map[int64]bool{1: true},
	}
	svc := NewWorkerService(repo, &fakeAssignmentRepo{}, nil, "US")

	if err := svc.DeleteWorker(1); !errors.Is(err, ErrWorkerInUse) {
		t.Fatalf("assigned worker: got %v, want ErrWorkerInUse", err)
	}
	if err := svc.DeleteWorker(7); !errors.Is(err, ErrWorkerNotFound) {
		t.Fatalf("missing worker: got %v, want ErrWorkerNotFound", err)
	}
	if err := svc.DeleteWorker(2); err != nil {
		t.Fatalf("delete worker: %v", err)
	}
	if _, ok := repo.workers[1]; !ok {
		t.Fatalf("assigned worker was deleted")
	}
}
