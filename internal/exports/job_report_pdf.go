package exports

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gioservice_backend/internal/models"
	"gioservice_backend/pkg/utils"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	pageMargin  = 15.0
	lineHeight  = 6.0
	photoWidth  = 90.0
	photoFooter = 12.0
)

// ReportPhoto is a job photo with its image bytes. Data is nil when the blob could not be read.
type ReportPhoto struct {
	Photo models.JobPhoto
	Data  []byte
}

// JobReport is everything printed on a job's PDF.
type JobReport struct {
	Company     string
	Job         *models.Job
	Photos      []ReportPhoto
	GeneratedAt time.Time
}

// JobReportName is the download name of a job's report.
func JobReportName(job *models.Job) string {
	return fmt.Sprintf("job_%d_report.pdf", job.ID)
}

// RenderJobReport lays out the summary, description, address, workers, cost breakdown
// and photo gallery of one job.
func RenderJobReport(r JobReport) ([]byte, error) {
	job := r.Job
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin

	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 10, tr(r.Company), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.CellFormat(contentW, lineHeight, tr(fmt.Sprintf("Job #%d report - generated %s", job.ID, generated.Format("2006-01-02 15:04"))), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section := func(title string) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetFillColor(230, 233, 239)
		pdf.CellFormat(contentW, 8, tr(title), "", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.Ln(1)
	}
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, lineHeight, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW-40, lineHeight, tr(value), "", "L", false)
	}

	section("Summary")
	field("Customer", job.CustomerName)
	field("Phone", utils.Deref(job.CustomerPhone))
	field("Email", utils.Deref(job.CustomerEmail))
	field("Service", utils.Deref(job.ServiceType))
	field("Status", job.Status)
	if job.ScheduledDate != nil {
		field("Scheduled", job.ScheduledDate.String())
	}
	if job.CompletedAt != nil {
		field("Completed", job.CompletedAt.Format("2006-01-02"))
	}
	field("Service area", utils.Deref(job.ServiceAreaName))

	section("Address")
	field("Address", job.AddressSummary())

	if d := utils.Deref(job.Description); d != "" {
		section("Description")
		pdf.MultiCell(contentW, lineHeight, tr(d), "", "L", false)
	}

	if len(job.Workers) > 0 {
		section("Workers")
		cols := []float64{contentW - 100, 25, 25, 25, 25}
		header := []string{"Worker", "Regular h", "Overtime h", "Rate", "Cost"}
		pdf.SetFont("Helvetica", "B", 10)
		for i, h := range header {
			pdf.CellFormat(cols[i], 7, tr(h), "B", 0, alignFor(i), false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
		for _, w := range job.Workers {
			row := []string{w.WorkerName, w.HoursRegular.String(), w.HoursOvertime.String(), money(w.LaborRate), money(w.LaborCost)}
			for i, v := range row {
				pdf.CellFormat(cols[i], 7, tr(v), "", 0, alignFor(i), false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	section("Cost breakdown")
	costs := []struct {
		label string
		value decimal.Decimal
	}{
		{"Travel fee", job.TravelFee},
		{"Labor", job.LaborTotal},
		{"Materials", job.MaterialsTotal},
		{"Other fees", job.OtherFees},
	}
	for _, c := range costs {
		pdf.CellFormat(contentW-40, 7, tr(c.label), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, money(c.value), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW-40, 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, money(job.TotalAmount), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	if len(r.Photos) > 0 {
		section("Photos")
		for i, p := range r.Photos {
			caption := photoCaption(p.Photo)
			if p.Data == nil {
				pdf.MultiCell(contentW, lineHeight, tr(caption+" (image unavailable)"), "", "L", false)
				continue
			}
			name := fmt.Sprintf("photo-%d-%d", p.Photo.ID, i)
			info := pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(p.Data))
			if info == nil || pdf.Err() {
				return nil, fmt.Errorf("adding photo %d: %w", p.Photo.ID, pdf.Error())
			}
			h := photoWidth * info.Height() / info.Width()
			if pdf.GetY()+h+photoFooter > pageH-pageMargin {
				pdf.AddPage()
			}
			y := pdf.GetY()
			pdf.ImageOptions(name, pageMargin, y, photoWidth, h, false, fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
			pdf.SetY(y + h + 1)
			pdf.SetFont("Helvetica", "I", 9)
			pdf.MultiCell(contentW, 5, tr(caption), "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			pdf.Ln(3)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering job report: %w", err)
	}
	return buf.Bytes(), nil
}

func photoCaption(p models.JobPhoto) string {
	stage := p.Stage
	if stage != "" {
		stage = strings.ToUpper(stage[:1]) + stage[1:]
	}
	if c := utils.Deref(p.Caption); c != "" {
		return stage + ": " + c
	}
	return stage
}

func alignFor(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}

func money(d decimal.Decimal) string {
	return "$" + models.Money(d).StringFixed(2)
}
