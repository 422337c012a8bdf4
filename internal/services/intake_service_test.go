package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gioservice_backend/internal/intake"
	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"
)

type intakeFixture struct {
	svc         IntakeService
	tx          *fakeTx
	clients     *fakeClientRepo
	jobs        *fakeJobRepo
	assignments *fakeAssignmentRepo
}

func newIntakeFixture() *intakeFixture {
	f := &intakeFixture{
		tx:          &fakeTx{},
		clients:     newFakeClientRepo(),
		jobs:        newFakeJobRepo(),
		assignments: &fakeAssignmentRepo{},
	}
	workers := &fakeWorkerRepo{workers: map[int64]models.Worker{
		4: {ID: 4, FullName: "Luis", HourlyRate: dec("22.50")},
		7: {ID: 7, FullName: "Marta", HourlyRate: dec("30")},
	}}
	controller := intake.NewController(intake.NewMemoryDraftStore(time.Hour), nil)
	f.svc = NewIntakeService(controller, f.clients, f.jobs, workers, f.assignments, f.tx, nil, nil, "US")
	return f
}

// readyDraft fills every step and walks the draft to the last step.
func readyDraft(t *testing.T, svc IntakeService, workerIDs []int64) string {
	t.Helper()
	ctx := context.Background()
	d, err := svc.CreateDraft(ctx)
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	isNew := true
	_, err = svc.PatchDraft(ctx, d.ID, intake.Patch{
		IsNewClient:   &isNew,
		CustomerName:  strP("Ana Lopez"),
		CustomerPhone: strP("(305) 555-0147"),
		AddressLine:   strP("12 Palm Ave"),
		City:          strP("Miami"),
		ZipCode:       strP("33101"),
		ServiceType:   strP("painting"),
		WorkerIDs:     &workerIDs,
		TravelFee:     decP("40"),
		LaborTotal:    decP("300"),
	})
	if err != nil {
		t.Fatalf("patch draft: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.Next(ctx, d.ID); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	return d.ID
}

func TestSubmitCreatesJobAndDedupedAssignments(t *testing.T) {
	f := newIntakeFixture()
	ctx := context.Background()
	draftID := readyDraft(t, f.svc, []int64{4, 7, 4})

	res, err := f.svc.Submit(ctx, draftID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Redirect != "/admin/trabajos" {
		t.Fatalf("redirect: got %q", res.Redirect)
	}
	if f.tx.commits != 1 {
		t.Fatalf("commits: got %d, want 1", f.tx.commits)
	}
	if len(f.clients.clients) != 1 {
		t.Fatalf("clients created: got %d, want 1", len(f.clients.clients))
	}
	if res.Job.ClientID == nil || f.clients.clients[*res.Job.ClientID].FullName != "Ana Lopez" {
		t.Fatalf("job not linked to the new client: %+v", res.Job.ClientID)
	}
	if res.Job.Status != models.JobStatusLead {
		t.Fatalf("status: got %s", res.Job.Status)
	}
	if !res.Job.TotalAmount.Equal(dec("340")) {
		t.Fatalf("total: got %s, want 340", res.Job.TotalAmount)
	}

	if len(f.assignments.created) != 2 {
		t.Fatalf("assignments: got %d, want 2", len(f.assignments.created))
	}
	wantRates := map[int64]string{4: "22.50", 7: "30"}
	for _, a := range f.assignments.created {
		if a.JobID != res.Job.ID {
			t.Fatalf("assignment on job %d, want %d", a.JobID, res.Job.ID)
		}
		if !a.HoursRegular.IsZero() || !a.HoursOvertime.IsZero() || !a.LaborCost.IsZero() {
			t.Fatalf("assignment should start with zero hours: %+v", a)
		}
		if !a.LaborRate.Equal(dec(wantRates[a.WorkerID])) {
			t.Fatalf("worker %d rate: got %s", a.WorkerID, a.LaborRate)
		}
	}

	if _, err := f.svc.GetDraft(ctx, draftID); !errors.Is(err, intake.ErrDraftNotFound) {
		t.Fatalf("draft should be gone after submit, got %v", err)
	}
}

func TestSubmitFailureRollsBackAndKeepsDraft(t *testing.T) {
	f := newIntakeFixture()
	f.assignments.failOn = 7
	ctx := context.Background()
	draftID := readyDraft(t, f.svc, []int64{4, 7})

	_, err := f.svc.Submit(ctx, draftID)
	if !errors.Is(err, repositories.ErrDatabaseError) {
		t.Fatalf("expected the assignment failure, got %v", err)
	}
	if f.tx.commits != 0 || f.tx.rollbacks != 1 {
		t.Fatalf("tx: commits=%d rollbacks=%d", f.tx.commits, f.tx.rollbacks)
	}

	d, err := f.svc.GetDraft(ctx, draftID)
	if err != nil {
		t.Fatalf("draft should survive a failed submit: %v", err)
	}
	if d.Step != intake.StepPricing || d.CustomerName != "Ana Lopez" {
		t.Fatalf("draft changed: step %d, name %q", d.Step, d.CustomerName)
	}
}

func TestSubmitUnknownWorker(t *testing.T) {
	f := newIntakeFixture()
	draftID := readyDraft(t, f.svc, []int64{4, 99})

	if _, err := f.svc.Submit(context.Background(), draftID); !errors.Is(err, ErrWorkerNotFound) {
		t.Fatalf("expected ErrWorkerNotFound, got %v", err)
	}
	if f.tx.commits != 0 {
		t.Fatalf("nothing should commit")
	}
}

func TestSubmitBeforeLastStep(t *testing.T) {
	f := newIntakeFixture()
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx)
	if _, err := f.svc.Submit(ctx, d.ID); !errors.Is(err, intake.ErrNotFinalStep) {
		t.Fatalf("expected ErrNotFinalStep, got %v", err)
	}
}
