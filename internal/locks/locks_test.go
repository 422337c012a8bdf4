package locks

import (
	"context"
	"testing"

	"gioservice_backend/internal/models"
)

func TestKeys(t *testing.T) {
	if got := InventoryItemKey(42); got != "lock:inventory:item:42" {
		t.Fatalf("item key: %s", got)
	}
	start, _ := models.ParseDate("2024-05-01")
	end, _ := models.ParseDate("2024-05-15")
	if got := PayrollRangeKey(start, end); got != "lock:payroll:2024-05-01:2024-05-15" {
		t.Fatalf("payroll key: %s", got)
	}
}

func TestNoopAcquire(t *testing.T) {
	var l Locker = Noop{}
	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()
	release()
}
