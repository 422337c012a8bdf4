package intake

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
)

type fakeAreas struct {
	byZip map[string]models.ServiceArea
	calls int
}

func (f *fakeAreas) LookupZip(_ context.Context, zip string) (*models.ServiceArea, error) {
	f.calls++
	a, ok := f.byZip[zip]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func newTestController(areas AreaLookup) *Controller {
	c := NewController(NewMemoryDraftStore(time.Hour), areas)
	n := 0
	c.newID = func() string {
		n++
		return "draft-" + string(rune('0'+n))
	}
	return c
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestNextBlocksEmptyCustomerName(t *testing.T) {
	ctx := context.Background()
	c := newTestController(nil)
	d, err := c.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.Patch(ctx, d.ID, Patch{CustomerName: strPtr("   "), IsNewClient: boolPtr(true)}); err != nil {
		t.Fatalf("patch: %v", err)
	}

	_, err = c.Next(ctx, d.ID)
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected step error, got %v", err)
	}
	if !errors.Is(err, ErrStepInvalid) {
		t.Fatalf("step error must match ErrStepInvalid")
	}
	if stepErr.Fields["customer_name"] != "required" {
		t.Fatalf("fields: %v", stepErr.Fields)
	}

	got, _ := c.Get(ctx, d.ID)
	if got.Step != StepCustomer {
		t.Fatalf("step changed to %d", got.Step)
	}
}

func TestStepGates(t *testing.T) {
	clientID := int64(7)
	cases := []struct {
		name   string
		draft  Draft
		step   int
		failOn string
	}{
		{"existing client required", Draft{CustomerName: "Ana"}, StepCustomer, "client_id"},
		{"existing client given", Draft{CustomerName: "Ana", ClientID: &clientID}, StepCustomer, ""},
		{"new client", Draft{CustomerName: "Ana", IsNewClient: true}, StepCustomer, ""},
		{"bad email", Draft{CustomerName: "Ana", IsNewClient: true, CustomerEmail: "nope"}, StepCustomer, "customer_email"},
		{"address missing", Draft{ZipCode: "33101"}, StepAddress, "address_line"},
		{"zip four digits", Draft{AddressLine: "1 Main St", ZipCode: "3310"}, StepAddress, "zip_code"},
		{"address ok", Draft{AddressLine: "1 Main St", ZipCode: "33101"}, StepAddress, ""},
		{"service type missing", Draft{}, StepDetails, "service_type"},
		{"bad status", Draft{ServiceType: "drywall", Status: "archived"}, StepDetails, "status"},
		{"negative fee", Draft{TravelFee: decimal.NewFromInt(-1)}, StepPricing, "travel_fee"},
		{"zero pricing", Draft{}, StepPricing, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStep(&tc.draft, tc.step)
			if tc.failOn == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var stepErr *StepError
			if !errors.As(err, &stepErr) {
				t.Fatalf("expected step error, got %v", err)
			}
			if _, ok := stepErr.Fields[tc.failOn]; !ok {
				t.Fatalf("expected %s in %v", tc.failOn, stepErr.Fields)
			}
		})
	}
}

func TestBackKeepsEnteredData(t *testing.T) {
	ctx := context.Background()
	c := newTestController(nil)
	d, _ := c.Create(ctx)

	patch := Patch{
		CustomerName: strPtr("Ana Lopez"),
		IsNewClient:  boolPtr(true),
		AddressLine:  strPtr("12 Palm Ave"),
		ZipCode:      strPtr("33101"),
		ServiceType:  strPtr("painting"),
		Description:  strPtr("two bedrooms"),
	}
	if _, err := c.Patch(ctx, d.ID, patch); err != nil {
		t.Fatalf("patch: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := c.Next(ctx, d.ID); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}

	got, err := c.Back(ctx, d.ID)
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if got.Step != StepAddress {
		t.Fatalf("step: got %d, want %d", got.Step, StepAddress)
	}
	if got.CustomerName != "Ana Lopez" || got.AddressLine != "12 Palm Ave" || got.ZipCode != "33101" ||
		got.ServiceType != "painting" || got.Description != "two bedrooms" {
		t.Fatalf("data lost on back: %+v", got)
	}
}

func TestBackAtFirstStep(t *testing.T) {
	ctx := context.Background()
	c := newTestController(nil)
	d, _ := c.Create(ctx)
	if _, err := c.Back(ctx, d.ID); !errors.Is(err, ErrNoPreviousStep) {
		t.Fatalf("expected ErrNoPreviousStep, got %v", err)
	}
}

func TestUnmatchedZipWarnsButDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	areas := &fakeAreas{byZip: map[string]models.ServiceArea{"33101": {ID: 3, Name: "Miami"}}}
	c := newTestController(areas)
	d, _ := c.Create(ctx)

	got, err := c.ResolveZip(ctx, d.ID, "33101")
	if err != nil {
		t.Fatalf("resolve matched: %v", err)
	}
	if got.ServiceAreaID == nil || *got.ServiceAreaID != 3 || got.ZipWarning != nil {
		t.Fatalf("matched zip: %+v", got)
	}

	got, err = c.ResolveZip(ctx, d.ID, "90210")
	if err != nil {
		t.Fatalf("resolve unmatched: %v", err)
	}
	if got.ServiceAreaID != nil || got.ServiceAreaName != nil || got.ZipWarning == nil {
		t.Fatalf("unmatched zip: %+v", got)
	}

	_, err = c.Patch(ctx, d.ID, Patch{
		CustomerName: strPtr("Ana"),
		IsNewClient:  boolPtr(true),
		AddressLine:  strPtr("1 Main St"),
		ServiceType:  strPtr("roofing"),
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := c.Next(ctx, d.ID); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	ready, err := c.Ready(ctx, d.ID)
	if err != nil {
		t.Fatalf("ready with unmatched zip: %v", err)
	}
	if ready.ZipWarning == nil {
		t.Fatalf("warning should survive navigation")
	}
}

func TestPatchZipChangeRetagsArea(t *testing.T) {
	ctx := context.Background()
	areas := &fakeAreas{byZip: map[string]models.ServiceArea{"33101": {ID: 3, Name: "Miami"}}}
	c := newTestController(areas)
	d, _ := c.Create(ctx)

	got, err := c.Patch(ctx, d.ID, Patch{ZipCode: strPtr("33101-1234")})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if got.ZipCode != "33101" || got.ServiceAreaName == nil || *got.ServiceAreaName != "Miami" {
		t.Fatalf("zip tagging: %+v", got)
	}
	if _, err := c.Patch(ctx, d.ID, Patch{City: strPtr("Miami")}); err != nil {
		t.Fatalf("patch city: %v", err)
	}
	if areas.calls != 1 {
		t.Fatalf("lookup calls: got %d, want 1", areas.calls)
	}
}

func TestPatchScheduledDateNullClears(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&fakeAreas{})
	d, _ := c.Create(ctx)

	steps := []struct {
		body string
		want string
	}{
		{`{"scheduled_date": "2026-10-20"}`, "2026-10-20"},
		{`{"city": "Miami"}`, "2026-10-20"},
		{`{"scheduled_date": null}`, ""},
	}
	for _, step := range steps {
		var p Patch
		if err := json.Unmarshal([]byte(step.body), &p); err != nil {
			t.Fatalf("decode %s: %v", step.body, err)
		}
		got, err := c.Patch(ctx, d.ID, p)
		if err != nil {
			t.Fatalf("patch %s: %v", step.body, err)
		}
		var date string
		if got.ScheduledDate != nil {
			date = got.ScheduledDate.String()
		}
		if date != step.want {
			t.Fatalf("after %s: scheduled date %q, want %q", step.body, date, step.want)
		}
	}
}

func TestTotalAlwaysRecomputed(t *testing.T) {
	ctx := context.Background()
	c := newTestController(nil)
	d, _ := c.Create(ctx)

	got, err := c.Patch(ctx, d.ID, Patch{
		TravelFee:      decPtr("50"),
		LaborTotal:     decPtr("100"),
		MaterialsTotal: decPtr("25"),
		OtherFees:      decPtr("0"),
		TotalAmount:    decPtr("999"),
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !got.TotalAmount.Equal(decimal.NewFromInt(175)) {
		t.Fatalf("total: got %s, want 175", got.TotalAmount)
	}

	got, _ = c.Patch(ctx, d.ID, Patch{OtherFees: decPtr("10.50")})
	if !got.TotalAmount.Equal(decimal.RequireFromString("185.50")) {
		t.Fatalf("total after edit: got %s, want 185.50", got.TotalAmount)
	}
}

func TestReadyRequiresLastStep(t *testing.T) {
	ctx := context.Background()
	c := newTestController(nil)
	d, _ := c.Create(ctx)
	if _, err := c.Ready(ctx, d.ID); !errors.Is(err, ErrNotFinalStep) {
		t.Fatalf("expected ErrNotFinalStep, got %v", err)
	}
}

func TestUniqueWorkerIDs(t *testing.T) {
	d := Draft{WorkerIDs: []int64{4, 2, 4, 0, 9}}
	got := d.UniqueWorkerIDs()
	want := []int64{4, 2, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDraftStore(time.Minute)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	if err := s.Save(ctx, NewDraft("a", base)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.Get(ctx, "a"); err != nil {
		t.Fatalf("get: %v", err)
	}
	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected expired draft, got %v", err)
	}
}
