package exports

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{R: 30, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestPayrollWorkbook(t *testing.T) {
	start, _ := models.ParseDate("2024-05-01")
	end, _ := models.ParseDate("2024-05-15")
	period := &models.PayrollPeriod{ID: 3, PeriodType: models.PeriodTypeBiweekly, StartDate: start, EndDate: end, Status: models.PayrollStatusDraft}
	entries := []models.PayrollEntry{
		{WorkerName: "Ana", HoursRegular: dec("40"), HoursOvertime: dec("5"), RateRegular: dec("20"), RateOvertime: dec("30"), GrossPay: dec("950"), NetPay: dec("950")},
		{WorkerName: "Luis", HoursRegular: dec("10"), RateRegular: dec("15"), Bonuses: dec("20"), Deductions: dec("5"), GrossPay: dec("150"), NetPay: dec("165")},
	}

	data, err := PayrollWorkbook(period, entries)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	raw := excelize.Options{RawCellValue: true}
	checks := map[string]string{
		"A3": "Worker",
		"A4": "Ana",
		"A5": "Luis",
		"A6": "Total",
		"B6": "50",
		"I4": "950",
		"I6": "1115",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue(payrollSheet, cell, raw)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		if got != want {
			t.Fatalf("%s: got %q, want %q", cell, got, want)
		}
	}
	if name := PayrollWorkbookName(period); name != "payroll_2024-05-01_2024-05-15.xlsx" {
		t.Fatalf("name: %s", name)
	}
}

func TestRenderJobReport(t *testing.T) {
	svc, desc, caption := "painting", "Two bedrooms, ceiling included", "north wall"
	date, _ := models.ParseDate("2024-05-02")
	job := &models.Job{
		ID:            7,
		CustomerName:  "José Núñez",
		ServiceType:   &svc,
		Description:   &desc,
		Status:        models.JobStatusCompleted,
		ScheduledDate: &date,
		TravelFee:     dec("50"),
		LaborTotal:    dec("100"),
		TotalAmount:   dec("150"),
		Workers: []models.JobWorker{
			{WorkerName: "Ana", HoursRegular: dec("5"), LaborRate: dec("20"), LaborCost: dec("100")},
		},
	}
	report := JobReport{
		Company:     "GioService",
		Job:         job,
		GeneratedAt: time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC),
		Photos: []ReportPhoto{
			{Photo: models.JobPhoto{ID: 1, Stage: models.PhotoStageBefore, Caption: &caption}, Data: jpegBytes(t)},
			{Photo: models.JobPhoto{ID: 2, Stage: models.PhotoStageAfter}},
		},
	}

	data, err := RenderJobReport(report)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
	if JobReportName(job) != "job_7_report.pdf" {
		t.Fatalf("name: %s", JobReportName(job))
	}
}

func TestPhotoCaption(t *testing.T) {
	c := "kitchen"
	cases := []struct {
		photo models.JobPhoto
		want  string
	}{
		{models.JobPhoto{Stage: "after", Caption: &c}, "After: kitchen"},
		{models.JobPhoto{Stage: "during"}, "During"},
		{models.JobPhoto{}, ""},
	}
	for _, tc := range cases {
		if got := photoCaption(tc.photo); got != tc.want {
			t.Fatalf("caption: got %q, want %q", got, tc.want)
		}
	}
}
