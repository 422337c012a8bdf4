package services

import (
	"context"
	"errors"
	"testing"

	"gioservice_backend/internal/models"
)

func newInventoryFixture() (InventoryService, *fakeItemRepo, *fakeMovementRepo, *fakeLocker) {
	items := &fakeItemRepo{items: map[int64]models.InventoryItem{
		8: {ID: 8, Name: "Primer", Quantity: dec("5"), MinQuantity: dec("2")},
	}}
	movements := &fakeMovementRepo{}
	locker := &fakeLocker{}
	svc := NewInventoryService(items, movements, &fakeTx{}, nil, locker, nil, nil)
	return svc, items, movements, locker
}

func TestRecordMovementAppliesDelta(t *testing.T) {
	cases := []struct {
		name     string
		kind     string
		quantity string
		want     string
		lowStock bool
	}{
		{"in adds", models.MovementTypeIn, "3", "8", false},
		{"out subtracts", models.MovementTypeOut, "3", "2", true},
		{"out may go negative", models.MovementTypeOut, "7", "-2", true},
		{"adjust is signed", models.MovementTypeAdjust, "-1.5", "3.5", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, items, movements, locker := newInventoryFixture()
			res, err := svc.RecordMovement(context.Background(), RecordMovementRequest{
				ItemID:       8,
				MovementType: tc.kind,
				Quantity:     dec(tc.quantity),
			}, nil)
			if err != nil {
				t.Fatalf("record: %v", err)
			}
			if !items.items[8].Quantity.Equal(dec(tc.want)) || !res.Item.Quantity.Equal(dec(tc.want)) {
				t.Fatalf("quantity: got %s, want %s", items.items[8].Quantity, tc.want)
			}
			if res.Item.LowStock != tc.lowStock {
				t.Fatalf("low stock: got %v", res.Item.LowStock)
			}
			if len(movements.movements) != 1 {
				t.Fatalf("movements: got %d", len(movements.movements))
			}
			if len(locker.acquired) != 1 || locker.acquired[0] != "lock:inventory:item:8" || locker.released != 1 {
				t.Fatalf("lock: %v released %d", locker.acquired, locker.released)
			}
		})
	}
}

func TestRecordMovementRejectsBadQuantity(t *testing.T) {
	cases := []struct {
		kind     string
		quantity string
	}{
		{models.MovementTypeIn, "0"},
		{models.MovementTypeOut, "-2"},
		{models.MovementTypeAdjust, "0"},
		{models.MovementTypeIn, "0.004"},
		{models.MovementTypeAdjust, "-0.001"},
		{"transfer", "1"},
	}
	for _, tc := range cases {
		svc, items, movements, _ := newInventoryFixture()
		_, err := svc.RecordMovement(context.Background(), RecordMovementRequest{ItemID: 8, MovementType: tc.kind, Quantity: dec(tc.quantity)}, nil)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s %s: expected validation error, got %v", tc.kind, tc.quantity, err)
		}
		if len(movements.movements) != 0 || !items.items[8].Quantity.Equal(dec("5")) {
			t.Fatalf("%s %s: nothing should be written", tc.kind, tc.quantity)
		}
	}
}

func TestReconcileRebuildsFromLedger(t *testing.T) {
	svc, items, movements, _ := newInventoryFixture()
	movements.movements = []models.InventoryMovement{
		{ItemID: 8, MovementType: models.MovementTypeIn, Quantity: dec("10")},
		{ItemID: 8, MovementType: models.MovementTypeOut, Quantity: dec("4")},
		{ItemID: 8, MovementType: models.MovementTypeAdjust, Quantity: dec("-2")},
	}

	res, err := svc.Reconcile(context.Background(), 8)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !res.Previous.Equal(dec("5")) || !res.Recomputed.Equal(dec("4")) || !res.Drift.Equal(dec("1")) {
		t.Fatalf("result: %+v", res)
	}
	if !items.items[8].Quantity.Equal(dec("4")) {
		t.Fatalf("quantity after reconcile: got %s", items.items[8].Quantity)
	}
}

func TestCreateItemRecordsInitialStock(t *testing.T) {
	svc, items, movements, _ := newInventoryFixture()
	qty := dec("12")
	sku := "PR-01"
	item, err := svc.CreateItem(context.Background(), CreateItemRequest{Name: " Caulk ", SKU: &sku, InitialQuantity: &qty}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Name != "Caulk" || !items.items[item.ID].Quantity.Equal(qty) {
		t.Fatalf("item: %+v", items.items[item.ID])
	}
	if len(movements.movements) != 1 || movements.movements[0].MovementType != models.MovementTypeIn {
		t.Fatalf("expected one initial in movement, got %+v", movements.movements)
	}

	if _, err := svc.CreateItem(context.Background(), CreateItemRequest{Name: "Other", SKU: &sku}, nil); !errors.Is(err, ErrSKUExists) {
		t.Fatalf("duplicate sku: got %v", err)
	}
	if len(movements.movements) != 1 {
		t.Fatalf("rejected create must not record a movement")
	}
}
