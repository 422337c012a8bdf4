package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gioservice_backend/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNoPreviousStep = errors.New("draft is already at the first step")
	ErrNoNextStep     = errors.New("draft is already at the last step")
	ErrNotFinalStep   = errors.New("draft can only be submitted from the last step")
)

// AreaLookup finds the active service area covering a ZIP code.
// It returns nil, nil when no area covers it.
type AreaLookup interface {
	LookupZip(ctx context.Context, zip string) (*models.ServiceArea, error)
}

// Controller moves drafts through the wizard. It never clears fields on navigation.
type Controller struct {
	store DraftStore
	areas AreaLookup
	newID func() string
	now   func() time.Time
}

func NewController(store DraftStore, areas AreaLookup) *Controller {
	return &Controller{
		store: store,
		areas: areas,
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
	}
}

func (c *Controller) Create(ctx context.Context) (*Draft, error) {
	d := NewDraft(c.newID(), c.now().UTC())
	if err := c.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (c *Controller) Get(ctx context.Context, id string) (*Draft, error) {
	return c.store.Get(ctx, id)
}

// Patch merges fields of any step. A changed ZIP code is re-resolved against the service areas.
func (c *Controller) Patch(ctx context.Context, id string, p Patch) (*Draft, error) {
	d, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Apply(d) {
		if err := c.tagServiceArea(ctx, d); err != nil {
			return nil, err
		}
	}
	return d, c.save(ctx, d)
}

// Next validates the current step and advances one step. The step is unchanged on failure.
func (c *Controller) Next(ctx context.Context, id string) (*Draft, error) {
	d, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Step >= LastStep {
		return d, ErrNoNextStep
	}
	if err := ValidateStep(d, d.Step); err != nil {
		return d, err
	}
	d.Step++
	return d, c.save(ctx, d)
}

func (c *Controller) Back(ctx context.Context, id string) (*Draft, error) {
	d, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Step <= FirstStep {
		return d, ErrNoPreviousStep
	}
	d.Step--
	return d, c.save(ctx, d)
}

// ResolveZip sets the draft's ZIP and tags the covering service area.
// An uncovered ZIP leaves a warning on the draft; it never blocks submission.
func (c *Controller) ResolveZip(ctx context.Context, id, zip string) (*Draft, error) {
	d, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.ZipCode = models.NormalizeZip(zip)
	if !models.IsValidZip(d.ZipCode) {
		return d, &StepError{Step: StepAddress, Fields: map[string]string{"zip_code": "zip5"}}
	}
	if err := c.tagServiceArea(ctx, d); err != nil {
		return nil, err
	}
	return d, c.save(ctx, d)
}

// Ready returns the draft when it sits on the last step and every step validates.
func (c *Controller) Ready(ctx context.Context, id string) (*Draft, error) {
	d, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Step != LastStep {
		return d, ErrNotFinalStep
	}
	if err := ValidateAll(d); err != nil {
		return d, err
	}
	return d, nil
}

// Complete discards a submitted draft.
func (c *Controller) Complete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, id)
}

func (c *Controller) Discard(ctx context.Context, id string) error {
	if _, err := c.store.Get(ctx, id); err != nil {
		return err
	}
	return c.store.Delete(ctx, id)
}

func (c *Controller) tagServiceArea(ctx context.Context, d *Draft) error {
	d.ServiceAreaID = nil
	d.ServiceAreaName = nil
	d.ZipWarning = nil
	if c.areas == nil || !models.IsValidZip(d.ZipCode) {
		return nil
	}

	area, err := c.areas.LookupZip(ctx, d.ZipCode)
	if err != nil {
		return fmt.Errorf("looking up zip %s: %w", d.ZipCode, err)
	}
	if area == nil {
		warning := fmt.Sprintf("ZIP %s is outside our current service areas", d.ZipCode)
		d.ZipWarning = &warning
		return nil
	}
	id, name := area.ID, area.Name
	d.ServiceAreaID = &id
	d.ServiceAreaName = &name
	return nil
}

func (c *Controller) save(ctx context.Context, d *Draft) error {
	d.UpdatedAt = c.now().UTC()
	return c.store.Save(ctx, d)
}
