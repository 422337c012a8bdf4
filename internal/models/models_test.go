package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestJobRecalculateTotal(t *testing.T) {
	job := &Job{
		TravelFee:      dec("25"),
		LaborTotal:     dec("100"),
		MaterialsTotal: dec("40"),
		OtherFees:      dec("10"),
		TotalAmount:    dec("9999"),
	}
	job.RecalculateTotal()
	if !job.TotalAmount.Equal(dec("175")) {
		t.Fatalf("total: got %s, want 175", job.TotalAmount)
	}

	job.MaterialsTotal = dec("60")
	job.RecalculateTotal()
	if !job.TotalAmount.Equal(dec("195")) {
		t.Fatalf("total after materials change: got %s, want 195", job.TotalAmount)
	}
	if !job.TravelFee.Equal(dec("25")) || !job.LaborTotal.Equal(dec("100")) || !job.OtherFees.Equal(dec("10")) {
		t.Fatalf("other components changed: %+v", job.Pricing())
	}
}

func TestJobRecalculateTotalRoundsComponents(t *testing.T) {
	job := &Job{TravelFee: dec("10.005"), LaborTotal: dec("0.004")}
	job.RecalculateTotal()
	if !job.TotalAmount.Equal(dec("10.01")) {
		t.Fatalf("total: got %s, want 10.01", job.TotalAmount)
	}
}

func TestApplyMovement(t *testing.T) {
	qty, err := ApplyMovement(dec("10"), MovementTypeOut, dec("3"))
	if err != nil {
		t.Fatalf("out: %v", err)
	}
	if !qty.Equal(dec("7")) {
		t.Fatalf("after out: got %s, want 7", qty)
	}
	qty, err = ApplyMovement(qty, MovementTypeAdjust, dec("-2"))
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !qty.Equal(dec("5")) {
		t.Fatalf("after adjust: got %s, want 5", qty)
	}
	qty, err = ApplyMovement(qty, MovementTypeIn, dec("4.5"))
	if err != nil {
		t.Fatalf("in: %v", err)
	}
	if !qty.Equal(dec("9.5")) {
		t.Fatalf("after in: got %s, want 9.5", qty)
	}
	if _, err := ApplyMovement(qty, "transfer", dec("1")); err == nil {
		t.Fatalf("expected error for unknown movement type")
	}
}

func TestValidateMovementQuantity(t *testing.T) {
	tests := []struct {
		movementType string
		quantity     string
		wantErr      bool
	}{
		{MovementTypeIn, "1", false},
		{MovementTypeIn, "0", true},
		{MovementTypeOut, "-1", true},
		{MovementTypeAdjust, "-2", false},
		{MovementTypeAdjust, "0", true},
		{"bogus", "1", true},
	}
	for _, tt := range tests {
		err := ValidateMovementQuantity(tt.movementType, dec(tt.quantity))
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s %s: got err %v, wantErr %v", tt.movementType, tt.quantity, err, tt.wantErr)
		}
	}
}

func TestInventoryItemIsLowStock(t *testing.T) {
	tests := []struct {
		quantity, min string
		want          bool
	}{
		{"5", "5", true},
		{"6", "5", false},
		{"0", "0", true},
		{"-1", "0", true},
	}
	for _, tt := range tests {
		item := &InventoryItem{Quantity: dec(tt.quantity), MinQuantity: dec(tt.min)}
		if got := item.IsLowStock(); got != tt.want {
			t.Fatalf("quantity=%s min=%s: got %v, want %v", tt.quantity, tt.min, got, tt.want)
		}
	}
}

func TestWorkerOvertimeRateOrDefault(t *testing.T) {
	w := &Worker{HourlyRate: dec("20")}
	if got := w.OvertimeRateOrDefault(); !got.Equal(dec("30")) {
		t.Fatalf("default overtime: got %s, want 30", got)
	}
	explicit := dec("35")
	w.OvertimeRate = &explicit
	if got := w.OvertimeRateOrDefault(); !got.Equal(dec("35")) {
		t.Fatalf("explicit overtime: got %s, want 35", got)
	}
}

func TestJobWorkerRecalculateCost(t *testing.T) {
	jw := &JobWorker{HoursRegular: dec("8"), HoursOvertime: dec("2"), LaborRate: dec("20")}
	jw.RecalculateCost()
	// 8*20 + 2*20*1.5
	if !jw.LaborCost.Equal(dec("220")) {
		t.Fatalf("labor cost: got %s, want 220", jw.LaborCost)
	}
}

func TestNextPayrollStatus(t *testing.T) {
	if next, ok := NextPayrollStatus(PayrollStatusDraft); !ok || next != PayrollStatusFinalized {
		t.Fatalf("draft: got %s %v", next, ok)
	}
	if next, ok := NextPayrollStatus(PayrollStatusFinalized); !ok || next != PayrollStatusPaid {
		t.Fatalf("finalized: got %s %v", next, ok)
	}
	if _, ok := NextPayrollStatus(PayrollStatusPaid); ok {
		t.Fatalf("paid must be terminal")
	}
}

func TestDateJSONAndWithin(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-03-15"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2024-03-15"` {
		t.Fatalf("marshal: got %s", out)
	}

	start, _ := ParseDate("2024-03-15")
	end, _ := ParseDate("2024-03-21")
	if !start.Within(start, end) || !end.Within(start, end) {
		t.Fatalf("range ends must be inclusive")
	}
	outside, _ := ParseDate("2024-03-22")
	if outside.Within(start, end) {
		t.Fatalf("%s must be outside range", outside)
	}
	if err := json.Unmarshal([]byte(`"15/03/2024"`), &d); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestNormalizeZip(t *testing.T) {
	if got := NormalizeZip(" 78701-1234 "); got != "78701" {
		t.Fatalf("zip+4: got %q", got)
	}
	if !IsValidZip("78701") || IsValidZip("7870") || IsValidZip("7870a") {
		t.Fatalf("zip validation mismatch")
	}
}
