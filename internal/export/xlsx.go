// Package export renders registrations as a spreadsheet for organizers.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spardhafest/spardha/internal/model"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the name of the single worksheet.
const SheetName = "Registrations"

const missing = "N/A"

// Columns is the header row of the export.
var Columns = []string{
	"Full Name",
	"Email",
	"Phone",
	"College",
	"Department",
	"Year of Study",
	"Registration Type",
	"Team Name",
	"Events Registered",
	"Registration Date",
}

// Filename returns the download name for an export of festival taken at now,
// e.g. Spardha_2025_Registrations_2025-03-01.xlsx.
func Filename(festival string, now time.Time) string {
	prefix := strings.Join(strings.Fields(festival), "_")
	if prefix == "" {
		prefix = "Festival"
	}
	return fmt.Sprintf("%s_Registrations_%s.xlsx", prefix, now.Format("2006-01-02"))
}

// Row flattens reg into export cells. Empty values become N/A.
func Row(reg model.Registration) []interface{} {
	or := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return missing
		}
		return s
	}

	year := missing
	if reg.YearOfStudy > 0 {
		year = strconv.Itoa(reg.YearOfStudy)
	}
	date := missing
	if !reg.CreatedAt.IsZero() {
		date = reg.CreatedAt.Format("2006-01-02")
	}

	return []interface{}{
		or(reg.FullName),
		or(reg.Email),
		or(reg.Phone),
		or(reg.College),
		or(reg.Department),
		year,
		or(string(reg.RegistrationType)),
		or(reg.TeamName),
		or(strings.Join(reg.Events, ", ")),
		date,
	}
}

// WriteXLSX writes regs as a workbook to w.
func WriteXLSX(w io.Writer, regs []model.Registration) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, reg := range regs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := Row(reg)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
