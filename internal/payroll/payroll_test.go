package payroll

import (
	"reflect"
	"testing"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func date(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func TestComputePayDefaultsOvertimeRate(t *testing.T) {
	w := models.Worker{ID: 1, FullName: "Ana", HourlyRate: dec("20")}
	hours := map[int64]Hours{1: {Regular: dec("40"), Overtime: dec("5"), Jobs: 3}}

	lines := BuildLines(hours, map[int64]models.Worker{1: w}, nil)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	line := lines[0]
	if !line.RateOvertime.Equal(dec("30")) {
		t.Fatalf("overtime rate: got %s, want 30", line.RateOvertime)
	}
	if !line.GrossPay.Equal(dec("950")) || !line.NetPay.Equal(dec("950")) {
		t.Fatalf("pay: gross %s net %s, want 950/950", line.GrossPay, line.NetPay)
	}
}

func TestComputePayWithAdjustments(t *testing.T) {
	gross, net := ComputePay(dec("10"), dec("2"), dec("25"), dec("40"), dec("15.50"), dec("5"))
	if !gross.Equal(dec("330")) {
		t.Fatalf("gross: got %s, want 330", gross)
	}
	if !net.Equal(dec("340.5")) {
		t.Fatalf("net: got %s, want 340.5", net)
	}
}

func TestInclusionFilter(t *testing.T) {
	workers := map[int64]models.Worker{
		1: {ID: 1, FullName: "Idle", HourlyRate: dec("20")},
		2: {ID: 2, FullName: "Bonus Only", HourlyRate: dec("20")},
		3: {ID: 3, FullName: "Overtime Only", HourlyRate: dec("20")},
	}
	hours := map[int64]Hours{
		1: {Jobs: 1},
		3: {Overtime: dec("2"), Jobs: 1},
	}
	adjustments := map[int64]Adjustment{
		2: {Bonuses: dec("50")},
	}

	lines := BuildLines(hours, workers, adjustments)
	included := map[int64]bool{}
	for _, l := range lines {
		included[l.WorkerID] = l.Included
	}
	want := map[int64]bool{1: false, 2: true, 3: true}
	if !reflect.DeepEqual(included, want) {
		t.Fatalf("included: got %v, want %v", included, want)
	}

	kept := IncludedLines(lines)
	if len(kept) != 2 {
		t.Fatalf("expected 2 included lines, got %d", len(kept))
	}
	for _, l := range kept {
		if l.WorkerID == 1 {
			t.Fatalf("idle worker must be excluded")
		}
	}
	bonus := lines[0]
	if bonus.WorkerID != 2 || !bonus.NetPay.Equal(dec("50")) {
		t.Fatalf("bonus-only line: %+v", bonus)
	}
}

func TestAggregateRangeAndAccumulation(t *testing.T) {
	start := date(t, "2024-05-01")
	end := date(t, "2024-05-07")
	rows := []models.WorkerHours{
		{WorkerID: 1, JobID: 1, ScheduledDate: date(t, "2024-05-01"), HoursRegular: decPtr("8")},
		{WorkerID: 1, JobID: 2, ScheduledDate: date(t, "2024-05-02"), HoursRegular: decPtr("8"), HoursOvertime: decPtr("1")},
		{WorkerID: 1, JobID: 3, ScheduledDate: date(t, "2024-05-03"), HoursRegular: decPtr("8")},
		{WorkerID: 1, JobID: 4, ScheduledDate: date(t, "2024-05-06"), HoursRegular: decPtr("8"), HoursOvertime: decPtr("2")},
		{WorkerID: 1, JobID: 5, ScheduledDate: date(t, "2024-05-07"), HoursRegular: decPtr("8")},
		{WorkerID: 1, JobID: 6, ScheduledDate: date(t, "2024-05-08"), HoursRegular: decPtr("8")},
		{WorkerID: 1, JobID: 7, ScheduledDate: date(t, "2024-04-30"), HoursRegular: decPtr("8")},
		{WorkerID: 2, JobID: 1, ScheduledDate: date(t, "2024-05-01")},
	}

	totals := Aggregate(rows, start, end)
	w1 := totals[1]
	if !w1.Regular.Equal(dec("40")) || !w1.Overtime.Equal(dec("3")) || w1.Jobs != 5 {
		t.Fatalf("worker 1: got %+v, want 40 regular, 3 overtime, 5 jobs", w1)
	}
	w2, ok := totals[2]
	if !ok || !w2.Regular.IsZero() || !w2.Overtime.IsZero() {
		t.Fatalf("worker 2 with null hours: got %+v (present %v)", w2, ok)
	}

	again := Aggregate(rows, start, end)
	if !reflect.DeepEqual(totals, again) {
		t.Fatalf("aggregation is not repeatable: %v vs %v", totals, again)
	}
}

func TestRecomputeAndTotal(t *testing.T) {
	entries := []models.PayrollEntry{
		{HoursRegular: dec("40"), RateRegular: dec("20"), RateOvertime: dec("30"), HoursOvertime: dec("5")},
		{HoursRegular: dec("10"), RateRegular: dec("15"), Bonuses: dec("20"), Deductions: dec("5")},
	}
	for i := range entries {
		Recompute(&entries[i])
	}
	if !entries[0].NetPay.Equal(dec("950")) {
		t.Fatalf("entry 0 net: got %s", entries[0].NetPay)
	}
	if !entries[1].GrossPay.Equal(dec("150")) || !entries[1].NetPay.Equal(dec("165")) {
		t.Fatalf("entry 1: gross %s net %s", entries[1].GrossPay, entries[1].NetPay)
	}
	if got := Total(entries); !got.Equal(dec("1115")) {
		t.Fatalf("total: got %s, want 1115", got)
	}
}

func TestLineEntry(t *testing.T) {
	line := Line{WorkerID: 4, WorkerName: "Luis", HoursRegular: dec("1"), NetPay: dec("10")}
	e := line.Entry(9)
	if e.PeriodID != 9 || e.WorkerID != 4 || !e.NetPay.Equal(dec("10")) {
		t.Fatalf("entry: %+v", e)
	}
}
