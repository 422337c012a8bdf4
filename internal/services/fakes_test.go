package services

import (
	"context"
	"fmt"
	"sort"

	"gioservice_backend/internal/models"
	"gioservice_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// Each fake embeds its repository interface; a method the test does not expect panics.

type fakeTx struct {
	commits   int
	rollbacks int
}

func (f *fakeTx) WithinTx(fn func(exec repositories.SQLExecutor) error) error {
	if err := fn(nil); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type fakeLocker struct {
	acquired []string
	released int
}

func (f *fakeLocker) Acquire(_ context.Context, key string) (func(), error) {
	f.acquired = append(f.acquired, key)
	return func() { f.released++ }, nil
}

type fakeClientRepo struct {
	repositories.ClientRepository
	clients map[int64]models.Client
	// withJobs marks clients a job still references.
	withJobs map[int64]bool
	nextID   int64
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: map[int64]models.Client{}, nextID: 10}
}

func (f *fakeClientRepo) CreateClient(_ repositories.SQLExecutor, c *models.Client) (int64, error) {
	f.nextID++
	c.ID = f.nextID
	f.clients[c.ID] = *c
	return c.ID, nil
}

func (f *fakeClientRepo) GetClientByID(id int64) (*models.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (f *fakeClientRepo) DeleteClient(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.clients[id]; !ok {
		return repositories.ErrNotFound
	}
	if f.withJobs[id] {
		return fmt.Errorf("%w: jobs_client_id_fkey", repositories.ErrForeignKey)
	}
	delete(f.clients, id)
	return nil
}

type fakeJobRepo struct {
	repositories.JobRepository
	jobs   map[int64]models.Job
	nextID int64
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[int64]models.Job{}, nextID: 100}
}

func (f *fakeJobRepo) CreateJob(_ repositories.SQLExecutor, j *models.Job) (int64, error) {
	f.nextID++
	j.ID = f.nextID
	if j.Status == "" {
		j.Status = models.JobStatusLead
	}
	j.RecalculateTotal()
	f.jobs[j.ID] = *j
	return j.ID, nil
}

func (f *fakeJobRepo) GetJobByID(id int64) (*models.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &j, nil
}

func (f *fakeJobRepo) GetJobForUpdate(_ repositories.SQLExecutor, id int64) (*models.Job, error) {
	return f.GetJobByID(id)
}

func (f *fakeJobRepo) UpdateJob(_ repositories.SQLExecutor, j *models.Job) error {
	if _, ok := f.jobs[j.ID]; !ok {
		return repositories.ErrNotFound
	}
	j.RecalculateTotal()
	f.jobs[j.ID] = *j
	return nil
}

type fakeWorkerRepo struct {
	repositories.WorkerRepository
	workers  map[int64]models.Worker
	assigned map[int64]bool
}

func (f *fakeWorkerRepo) CreateWorker(_ repositories.SQLExecutor, w *models.Worker) (int64, error) {
	w.ID = int64(len(f.workers) + 1)
	f.workers[w.ID] = *w
	return w.ID, nil
}

func (f *fakeWorkerRepo) DeleteWorker(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.workers[id]; !ok {
		return repositories.ErrNotFound
	}
	if f.assigned[id] {
		return fmt.Errorf("%w: job_workers_worker_id_fkey", repositories.ErrForeignKey)
	}
	delete(f.workers, id)
	return nil
}

func (f *fakeWorkerRepo) GetWorkersByIDs(_ repositories.SQLExecutor, ids []int64) ([]models.Worker, error) {
	out := []models.Worker{}
	for _, id := range ids {
		if w, ok := f.workers[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWorkerRepo) GetWorkerByID(id int64) (*models.Worker, error) {
	w, ok := f.workers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &w, nil
}

type fakeAssignmentRepo struct {
	repositories.JobWorkerRepository
	created []models.JobWorker
	hours   []models.WorkerHours
	failOn  int64
}

func (f *fakeAssignmentRepo) CreateAssignment(_ repositories.SQLExecutor, a *models.JobWorker) (int64, error) {
	if a.WorkerID == f.failOn {
		return 0, fmt.Errorf("%w: assignment insert failed", repositories.ErrDatabaseError)
	}
	for _, existing := range f.created {
		if existing.JobID == a.JobID && existing.WorkerID == a.WorkerID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	a.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *a)
	return a.ID, nil
}

func (f *fakeAssignmentRepo) GetAssignmentByID(id int64) (*models.JobWorker, error) {
	for _, a := range f.created {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAssignmentRepo) UpdateAssignment(_ repositories.SQLExecutor, a *models.JobWorker) error {
	for i := range f.created {
		if f.created[i].ID == a.ID {
			f.created[i] = *a
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeAssignmentRepo) GetAssignmentsByJob(jobID int64) ([]models.JobWorker, error) {
	out := []models.JobWorker{}
	for _, a := range f.created {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) GetWorkerHoursInRange(start, end models.Date) ([]models.WorkerHours, error) {
	return f.hours, nil
}

type fakePhotoRepo struct {
	repositories.PhotoRepository
}

func (fakePhotoRepo) GetPhotosByJob(int64, *string) ([]models.JobPhoto, error) {
	return []models.JobPhoto{}, nil
}

type fakeItemRepo struct {
	repositories.InventoryItemRepository
	items map[int64]models.InventoryItem
}

func (f *fakeItemRepo) CreateItem(_ repositories.SQLExecutor, item *models.InventoryItem) (int64, error) {
	for _, existing := range f.items {
		if item.SKU != nil && existing.SKU != nil && *existing.SKU == *item.SKU {
			return 0, repositories.ErrDuplicateKey
		}
	}
	item.ID = int64(len(f.items) + 100)
	f.items[item.ID] = *item
	return item.ID, nil
}

func (f *fakeItemRepo) GetItemForUpdate(_ repositories.SQLExecutor, id int64) (*models.InventoryItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &item, nil
}

func (f *fakeItemRepo) GetItemByID(id int64) (*models.InventoryItem, error) {
	return f.GetItemForUpdate(nil, id)
}

func (f *fakeItemRepo) SetItemQuantity(_ repositories.SQLExecutor, id int64, quantity decimal.Decimal) error {
	item := f.items[id]
	item.Quantity = quantity
	f.items[id] = item
	return nil
}

type fakeMovementRepo struct {
	repositories.InventoryMovementRepository
	movements []models.InventoryMovement
}

func (f *fakeMovementRepo) CreateMovement(_ repositories.SQLExecutor, m *models.InventoryMovement) (int64, error) {
	m.ID = int64(len(f.movements) + 1)
	f.movements = append(f.movements, *m)
	return m.ID, nil
}

func (f *fakeMovementRepo) SumDeltas(_ repositories.SQLExecutor, itemID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range f.movements {
		if m.ItemID != itemID {
			continue
		}
		delta, err := models.MovementDelta(m.MovementType, m.Quantity)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(delta)
	}
	return sum, nil
}

type fakeMaterialRepo struct {
	repositories.JobMaterialRepository
	materials map[int64]models.JobMaterial
	nextID    int64
}

func newFakeMaterialRepo() *fakeMaterialRepo {
	return &fakeMaterialRepo{materials: map[int64]models.JobMaterial{}}
}

func (f *fakeMaterialRepo) CreateMaterial(_ repositories.SQLExecutor, m *models.JobMaterial) (int64, error) {
	f.nextID++
	m.ID = f.nextID
	f.materials[m.ID] = *m
	return m.ID, nil
}

func (f *fakeMaterialRepo) GetMaterialByID(_ repositories.SQLExecutor, jobID, materialID int64) (*models.JobMaterial, error) {
	m, ok := f.materials[materialID]
	if !ok || m.JobID != jobID {
		return nil, repositories.ErrNotFound
	}
	return &m, nil
}

func (f *fakeMaterialRepo) GetMaterialsByJob(jobID int64) ([]models.JobMaterial, error) {
	out := []models.JobMaterial{}
	for _, m := range f.materials {
		if m.JobID == jobID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMaterialRepo) DeleteMaterial(_ repositories.SQLExecutor, jobID, materialID int64) error {
	if _, err := f.GetMaterialByID(nil, jobID, materialID); err != nil {
		return err
	}
	delete(f.materials, materialID)
	return nil
}

func (f *fakeMaterialRepo) SumMaterialCost(_ repositories.SQLExecutor, jobID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range f.materials {
		if m.JobID == jobID {
			sum = sum.Add(m.TotalCost)
		}
	}
	return sum, nil
}

type fakePayrollRepo struct {
	repositories.PayrollRepository
	periods map[int64]models.PayrollPeriod
	entries map[int64]models.PayrollEntry
	nextID  int64
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{periods: map[int64]models.PayrollPeriod{}, entries: map[int64]models.PayrollEntry{}}
}

func (f *fakePayrollRepo) FindPeriodByRange(_ repositories.SQLExecutor, start, end models.Date) (*models.PayrollPeriod, error) {
	for _, p := range f.periods {
		if p.StartDate.Equal(start.Time) && p.EndDate.Equal(end.Time) {
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakePayrollRepo) CreatePeriod(_ repositories.SQLExecutor, p *models.PayrollPeriod) (int64, error) {
	for _, existing := range f.periods {
		if existing.StartDate.Equal(p.StartDate.Time) && existing.EndDate.Equal(p.EndDate.Time) {
			return 0, fmt.Errorf("%w: payroll_periods_range_key", repositories.ErrDuplicateKey)
		}
	}
	f.nextID++
	p.ID = f.nextID
	f.periods[p.ID] = *p
	return p.ID, nil
}

func (f *fakePayrollRepo) GetPeriodByID(id int64) (*models.PayrollPeriod, error) {
	p, ok := f.periods[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (f *fakePayrollRepo) GetPeriodForUpdate(_ repositories.SQLExecutor, id int64) (*models.PayrollPeriod, error) {
	return f.GetPeriodByID(id)
}

func (f *fakePayrollRepo) UpdatePeriodStatus(_ repositories.SQLExecutor, id int64, status string) error {
	p := f.periods[id]
	p.Status = status
	f.periods[id] = p
	return nil
}

func (f *fakePayrollRepo) UpdatePeriodTotal(_ repositories.SQLExecutor, id int64, total decimal.Decimal) error {
	p := f.periods[id]
	p.TotalAmount = total
	f.periods[id] = p
	return nil
}

func (f *fakePayrollRepo) CreateEntry(_ repositories.SQLExecutor, e *models.PayrollEntry) (int64, error) {
	f.nextID++
	e.ID = f.nextID
	f.entries[e.ID] = *e
	return e.ID, nil
}

func (f *fakePayrollRepo) GetEntryByID(_ repositories.SQLExecutor, periodID, entryID int64) (*models.PayrollEntry, error) {
	e, ok := f.entries[entryID]
	if !ok || e.PeriodID != periodID {
		return nil, repositories.ErrNotFound
	}
	return &e, nil
}

func (f *fakePayrollRepo) GetEntriesByPeriod(periodID int64) ([]models.PayrollEntry, error) {
	out := []models.PayrollEntry{}
	for _, e := range f.entries {
		if e.PeriodID == periodID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out, nil
}

func (f *fakePayrollRepo) UpdateEntry(_ repositories.SQLExecutor, e *models.PayrollEntry) error {
	f.entries[e.ID] = *e
	return nil
}

func (f *fakePayrollRepo) SumNetPay(_ repositories.SQLExecutor, periodID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range f.entries {
		if e.PeriodID == periodID {
			sum = sum.Add(e.NetPay)
		}
	}
	return sum, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decP(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strP(s string) *string { return &s }
