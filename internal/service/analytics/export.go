package analytics

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/casacaminho/shelter-api/internal/model"
)

const (
	summarySheet = "Resumo"
	detailSheet  = "Permanencias"
)

var detailHeader = []string{"Paciente", "Quarto", "Entrada", "Duração (dias)", "Situação"}

func statusLabel(s model.StayStatus) string {
	if s == model.StayStatusEnded {
		return "Encerrada"
	}
	return "Ativa"
}

// buildWorkbook renders a report as an XLSX file with a summary sheet and one row
// per stay.
func buildWorkbook(report *model.AnalyticsReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	summary := [][]interface{}{
		{"Indicador", "Valor"},
		{"Início", report.Range.Start.String()},
		{"Fim", report.Range.End.String()},
		{"Solicitações recebidas", report.Metrics.Requests},
		{"Acolhimentos", report.Metrics.Admissions},
		{"Altas", report.Metrics.Discharges},
		{"Ocupação atual (%)", report.Metrics.OccupancyPct},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.SetSheetRow(detailSheet, "A1", &detailHeader); err != nil {
		return nil, fmt.Errorf("failed to write detail header: %w", err)
	}
	if err := f.SetCellStyle(detailSheet, "A1", "E1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	for i, r := range report.Details {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{r.PatientName, r.RoomNumber, r.EntryDate.String(), r.DurationDays, statusLabel(r.Status)}
		if err := f.SetSheetRow(detailSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write detail row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(detailSheet, "A", "A", 30); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
