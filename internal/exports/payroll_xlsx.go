// Package exports renders job reports as PDF and payroll periods as XLSX workbooks.
package exports

import (
	"fmt"

	"gioservice_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const payrollSheet = "Payroll"

var payrollHeader = []string{
	"Worker", "Regular hours", "Overtime hours", "Regular rate", "Overtime rate",
	"Bonuses", "Deductions", "Gross pay", "Net pay",
}

// PayrollWorkbookName is the download name for a period's workbook.
func PayrollWorkbookName(period *models.PayrollPeriod) string {
	return fmt.Sprintf("payroll_%s_%s.xlsx", period.StartDate, period.EndDate)
}

// PayrollWorkbook writes one row per entry followed by a totals row.
func PayrollWorkbook(period *models.PayrollPeriod, entries []models.PayrollEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(payrollSheet)
	if err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	title := fmt.Sprintf("Payroll %s to %s (%s, %s)", period.StartDate, period.EndDate, period.PeriodType, period.Status)
	if err := f.SetCellValue(payrollSheet, "A1", title); err != nil {
		return nil, err
	}

	const headerRow = 3
	for c, v := range payrollHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, headerRow)
		if err := f.SetCellValue(payrollSheet, cell, v); err != nil {
			return nil, err
		}
	}

	var regular, overtime, bonuses, deductions, gross, net decimal.Decimal
	row := headerRow
	for _, e := range entries {
		row++
		values := []interface{}{
			e.WorkerName,
			e.HoursRegular.InexactFloat64(),
			e.HoursOvertime.InexactFloat64(),
			e.RateRegular.InexactFloat64(),
			e.RateOvertime.InexactFloat64(),
			e.Bonuses.InexactFloat64(),
			e.Deductions.InexactFloat64(),
			e.GrossPay.InexactFloat64(),
			e.NetPay.InexactFloat64(),
		}
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		regular = regular.Add(e.HoursRegular)
		overtime = overtime.Add(e.HoursOvertime)
		bonuses = bonuses.Add(e.Bonuses)
		deductions = deductions.Add(e.Deductions)
		gross = gross.Add(e.GrossPay)
		net = net.Add(e.NetPay)
	}

	row++
	totals := []interface{}{
		"Total",
		regular.InexactFloat64(),
		overtime.InexactFloat64(),
		nil,
		nil,
		bonuses.InexactFloat64(),
		deductions.InexactFloat64(),
		gross.InexactFloat64(),
		net.InexactFloat64(),
	}
	if err := setRow(f, row, totals); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(payrollSheet, "A", "A", 28)
	_ = f.SetColWidth(payrollSheet, "B", "I", 15)

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	header, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	money, _ := f.NewStyle(&excelize.Style{NumFmt: 4})
	_ = f.SetCellStyle(payrollSheet, "A1", "A1", bold)
	_ = f.SetCellStyle(payrollSheet, "A3", "I3", header)
	if row > headerRow {
		first, _ := excelize.CoordinatesToCellName(2, headerRow+1)
		last, _ := excelize.CoordinatesToCellName(len(payrollHeader), row)
		_ = f.SetCellStyle(payrollSheet, first, last, money)
	}
	totalStart, _ := excelize.CoordinatesToCellName(1, row)
	totalEnd, _ := excelize.CoordinatesToCellName(len(payrollHeader), row)
	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	_ = f.SetCellStyle(payrollSheet, totalStart, totalEnd, totalStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	for c, v := range values {
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(c+1, row)
		if err := f.SetCellValue(payrollSheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
