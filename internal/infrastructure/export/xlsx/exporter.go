package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

const SheetName = "Sessions"

var headers = []string{
	"Date", "Symptoms", "Description", "Urgency", "Status",
	"Possible conditions", "Recommended specialist", "Summary",
}

// Exporter writes triage history as an .xlsx workbook, one row per session.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportSessions(w io.Writer, sessions []domain.TriageSession) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, header := range headers {
		if err := setCell(f, col+1, 1, header); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, session := range sessions {
		row := i + 2
		values := []any{
			session.CreatedAt.UTC().Format("2006-01-02 15:04"),
			strings.Join(session.Symptoms, ", "),
			session.Narrative,
			string(session.Urgency()),
			string(session.Status),
			strings.Join(session.Verdict.PossibleConditions, "; "),
			session.Verdict.RecommendedSpecialist,
			session.Verdict.Summary,
		}
		for col, value := range values {
			if err := setCell(f, col+1, row, value); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "H", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
