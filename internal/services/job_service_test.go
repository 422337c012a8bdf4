package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gioservice_backend/internal/models"
)

type jobFixture struct {
	svc       JobService
	jobs      *fakeJobRepo
	items     *fakeItemRepo
	movements *fakeMovementRepo
	materials *fakeMaterialRepo
	locker    *fakeLocker
	tx        *fakeTx
}

func newJobFixture() *jobFixture {
	f := &jobFixture{
		jobs: newFakeJobRepo(),
		items: &fakeItemRepo{items: map[int64]models.InventoryItem{
			5: {ID: 5, Name: "Drywall screws", Quantity: dec("10"), CostPerUnit: dec("12.50")},
		}},
		movements: &fakeMovementRepo{},
		materials: newFakeMaterialRepo(),
		locker:    &fakeLocker{},
		tx:        &fakeTx{},
	}
	f.jobs.jobs[1] = models.Job{ID: 1, CustomerName: "Ana", Status: models.JobStatusScheduled, TravelFee: dec("50"), TotalAmount: dec("50")}

	f.svc = NewJobService(JobRepos{
		Jobs:        f.jobs,
		Clients:     newFakeClientRepo(),
		Assignments: &fakeAssignmentRepo{},
		Materials:   f.materials,
		Workers: &fakeWorkerRepo{workers: map[int64]models.Worker{
			3: {ID: 3, FullName: "Luis", HourlyRate: dec("20")},
		}},
		Photos:    fakePhotoRepo{},
		Items:     f.items,
		Movements: f.movements,
	}, f.tx, nil, f.locker, nil, nil, nil, JobServiceConfig{CompanyName: "GioService", PhoneRegion: "US"})
	return f
}

func TestAddMaterialConsumesStockAndUpdatesTotals(t *testing.T) {
	f := newJobFixture()
	ctx := context.Background()

	job, err := f.svc.AddMaterial(ctx, 1, AddMaterialRequest{ItemID: 5, Quantity: dec("3")}, nil)
	if err != nil {
		t.Fatalf("add material: %v", err)
	}
	if got := f.items.items[5].Quantity; !got.Equal(dec("7")) {
		t.Fatalf("item quantity: got %s, want 7", got)
	}
	if !job.MaterialsTotal.Equal(dec("37.50")) || !job.TotalAmount.Equal(dec("87.50")) {
		t.Fatalf("totals: materials %s, total %s", job.MaterialsTotal, job.TotalAmount)
	}

	job, err = f.svc.AddMaterial(ctx, 1, AddMaterialRequest{ItemID: 5, Quantity: dec("2"), UnitCost: decP("5")}, nil)
	if err != nil {
		t.Fatalf("add second material: %v", err)
	}
	if !job.MaterialsTotal.Equal(dec("47.50")) {
		t.Fatalf("materials total: got %s, want 47.50", job.MaterialsTotal)
	}
	if len(job.Materials) != 2 {
		t.Fatalf("materials listed: got %d", len(job.Materials))
	}

	for _, m := range f.movements.movements {
		if m.MovementType != models.MovementTypeOut || m.JobID == nil || *m.JobID != 1 {
			t.Fatalf("movement: %+v", m)
		}
	}
	if len(f.locker.acquired) != 2 || f.locker.acquired[0] != "lock:inventory:item:5" || f.locker.released != 2 {
		t.Fatalf("locks: %v released %d", f.locker.acquired, f.locker.released)
	}
}

func TestRemoveMaterialReturnsStock(t *testing.T) {
	f := newJobFixture()
	ctx := context.Background()

	job, err := f.svc.AddMaterial(ctx, 1, AddMaterialRequest{ItemID: 5, Quantity: dec("4")}, nil)
	if err != nil {
		t.Fatalf("add material: %v", err)
	}
	job, err = f.svc.RemoveMaterial(ctx, 1, job.Materials[0].ID, nil)
	if err != nil {
		t.Fatalf("remove material: %v", err)
	}
	if got := f.items.items[5].Quantity; !got.Equal(dec("10")) {
		t.Fatalf("item quantity: got %s, want 10", got)
	}
	if !job.MaterialsTotal.IsZero() || !job.TotalAmount.Equal(dec("50")) {
		t.Fatalf("totals: materials %s, total %s", job.MaterialsTotal, job.TotalAmount)
	}
	last := f.movements.movements[len(f.movements.movements)-1]
	if last.MovementType != models.MovementTypeIn || !last.Quantity.Equal(dec("4")) {
		t.Fatalf("reversal movement: %+v", last)
	}
}

func TestAddMaterialValidation(t *testing.T) {
	f := newJobFixture()
	ctx := context.Background()
	cases := []struct {
		name string
		req  AddMaterialRequest
		job  int64
		want error
	}{
		{"zero quantity", AddMaterialRequest{ItemID: 5, Quantity: dec("0")}, 1, ErrValidation},
		{"rounds to zero", AddMaterialRequest{ItemID: 5, Quantity: dec("0.004")}, 1, ErrValidation},
		{"negative cost", AddMaterialRequest{ItemID: 5, Quantity: dec("1"), UnitCost: decP("-1")}, 1, ErrValidation},
		{"missing job", AddMaterialRequest{ItemID: 5, Quantity: dec("1")}, 404, ErrJobNotFound},
		{"missing item", AddMaterialRequest{ItemID: 77, Quantity: dec("1")}, 1, ErrItemNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.AddMaterial(ctx, tc.job, tc.req, nil); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
	if !f.items.items[5].Quantity.Equal(dec("10")) {
		t.Fatalf("failed requests must not touch stock")
	}
}

func TestUpdateJobRecomputesTotal(t *testing.T) {
	f := newJobFixture()
	job, err := f.svc.UpdateJob(context.Background(), 1, UpdateJobRequest{LaborTotal: decP("120"), OtherFees: decP("9.99")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !job.TotalAmount.Equal(dec("179.99")) {
		t.Fatalf("total: got %s, want 179.99", job.TotalAmount)
	}
}

// interleavingJobRepo runs onRead once, right after the first unlocked read of a job.
type interleavingJobRepo struct {
	*fakeJobRepo
	onRead func()
}

func (r *interleavingJobRepo) GetJobByID(id int64) (*models.Job, error) {
	j, err := r.fakeJobRepo.GetJobByID(id)
	if fn := r.onRead; fn != nil {
		r.onRead = nil
		fn()
	}
	return j, err
}

func TestUpdateJobKeepsConcurrentMaterialsTotal(t *testing.T) {
	f := newJobFixture()
	ctx := context.Background()
	jobs := &interleavingJobRepo{fakeJobRepo: f.jobs}
	jobs.onRead = func() {
		if _, err := f.svc.AddMaterial(ctx, 1, AddMaterialRequest{ItemID: 5, Quantity: dec("2")}, nil); err != nil {
			t.Fatalf("concurrent add material: %v", err)
		}
	}
	svc := NewJobService(JobRepos{
		Jobs:        jobs,
		Clients:     newFakeClientRepo(),
		Assignments: &fakeAssignmentRepo{},
		Materials:   f.materials,
		Workers:     &fakeWorkerRepo{workers: map[int64]models.Worker{}},
		Photos:      fakePhotoRepo{},
		Items:       f.items,
		Movements:   f.movements,
	}, f.tx, nil, f.locker, nil, nil, nil, JobServiceConfig{PhoneRegion: "US"})

	if _, err := svc.UpdateJob(ctx, 1, UpdateJobRequest{Notes: strP("gate code 1234")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored := f.jobs.jobs[1]
	if !stored.MaterialsTotal.Equal(dec("25")) || !stored.TotalAmount.Equal(dec("75")) {
		t.Fatalf("lost update: materials %s, total %s", stored.MaterialsTotal, stored.TotalAmount)
	}
	if stored.Notes == nil || *stored.Notes != "gate code 1234" {
		t.Fatalf("notes not saved: %v", stored.Notes)
	}
}

func TestUpdateJobClearsScheduledDate(t *testing.T) {
	f := newJobFixture()
	date := models.NewDate(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	job := f.jobs.jobs[1]
	job.ScheduledDate = &date
	f.jobs.jobs[1] = job

	var req UpdateJobRequest
	if err := json.Unmarshal([]byte(`{"notes": "call first"}`), &req); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := f.svc.UpdateJob(context.Background(), 1, req); err != nil {
		t.Fatalf("update: %v", err)
	}
	if f.jobs.jobs[1].ScheduledDate == nil {
		t.Fatalf("absent scheduled_date must keep the stored date")
	}

	req = UpdateJobRequest{}
	if err := json.Unmarshal([]byte(`{"scheduled_date": null}`), &req); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := f.svc.UpdateJob(context.Background(), 1, req); err != nil {
		t.Fatalf("update: %v", err)
	}
	if f.jobs.jobs[1].ScheduledDate != nil {
		t.Fatalf("null scheduled_date must clear it, got %v", f.jobs.jobs[1].ScheduledDate)
	}
}

func TestUpdateJobStatusStampsCompletion(t *testing.T) {
	f := newJobFixture()
	ctx := context.Background()

	job, err := f.svc.UpdateJobStatus(ctx, 1, models.JobStatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if job.CompletedAt == nil {
		t.Fatalf("completed_at should be stamped")
	}
	stamp := *job.CompletedAt

	job, err = f.svc.UpdateJobStatus(ctx, 1, models.JobStatusPaid)
	if err != nil {
		t.Fatalf("paid: %v", err)
	}
	if job.CompletedAt == nil || !job.CompletedAt.Equal(stamp) {
		t.Fatalf("completed_at should be kept when moving on to paid")
	}

	job, err = f.svc.UpdateJobStatus(ctx, 1, models.JobStatusInProgress)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if job.CompletedAt != nil {
		t.Fatalf("completed_at should clear on reopen")
	}

	if _, err := f.svc.UpdateJobStatus(ctx, 1, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestAssignWorkerUsesHourlyRateOnce(t *testing.T) {
	f := newJobFixture()
	a, err := f.svc.AssignWorker(1, AssignWorkerRequest{WorkerID: 3})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !a.LaborRate.Equal(dec("20")) || !a.HoursRegular.IsZero() {
		t.Fatalf("assignment: %+v", a)
	}
	if _, err := f.svc.AssignWorker(1, AssignWorkerRequest{WorkerID: 3}); !errors.Is(err, ErrWorkerAlreadyAssigned) {
		t.Fatalf("expected ErrWorkerAlreadyAssigned, got %v", err)
	}
	if _, err := f.svc.AssignWorker(1, AssignWorkerRequest{WorkerID: 9}); !errors.Is(err, ErrWorkerNotFound) {
		t.Fatalf("expected ErrWorkerNotFound, got %v", err)
	}

	a, err = f.svc.UpdateAssignment(1, a.ID, UpdateAssignmentRequest{HoursRegular: decP("6"), HoursOvertime: decP("2")})
	if err != nil {
		t.Fatalf("update hours: %v", err)
	}
	// 6*20 + 2*20*1.5
	if !a.LaborCost.Equal(dec("180")) {
		t.Fatalf("labor cost: got %s, want 180", a.LaborCost)
	}
	if _, err := f.svc.UpdateAssignment(2, a.ID, UpdateAssignmentRequest{}); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("assignment of another job: got %v", err)
	}
}

func TestWhatsAppShare(t *testing.T) {
	f := newJobFixture()
	completed := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	job := f.jobs.jobs[1]
	job.Status = models.JobStatusCompleted
	job.CompletedAt = &completed
	job.CustomerPhone = strP("+13055550147")
	f.jobs.jobs[1] = job

	link, err := f.svc.WhatsAppShare(1, nil, false)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if !strings.HasPrefix(link.URL, "https://api.whatsapp.com/send/?phone=13055550147&text=") {
		t.Fatalf("url: %s", link.URL)
	}
	if strings.Contains(link.URL, " ") || strings.Contains(link.URL, "+") {
		t.Fatalf("text must be url-encoded: %s", link.URL)
	}

	job.CustomerPhone = nil
	f.jobs.jobs[1] = job
	if _, err := f.svc.WhatsAppShare(1, nil, false); !errors.Is(err, ErrNoSharePhone) {
		t.Fatalf("expected ErrNoSharePhone, got %v", err)
	}
}
