package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

const (
	sheetName     = "Historique"
	titleRow      = 1
	headerRow     = 3
	dataRowStart  = 4
	timestampForm = "02/01/2006 15:04"
)

var headers = []string{"Ordre", "Étape", "Responsable", "État", "Décision", "Commentaire", "Acteur", "Date"}

var stateLabels = map[workflow.StepState]string{
	workflow.StepCompleted: "Terminée",
	workflow.StepCurrent:   "En cours",
	workflow.StepPending:   "À venir",
}

// XLSXExporter writes a stepper as a one-sheet workbook, one row per step
type XLSXExporter struct {
	logger *zap.Logger
}

// NewXLSXExporter creates a new workbook exporter
func NewXLSXExporter(logger *zap.Logger) port.HistoryExporter {
	return &XLSXExporter{logger: logger}
}

// ExportHistory renders the stepper and returns the workbook bytes
func (e *XLSXExporter) ExportHistory(title string, stepper workflow.Stepper) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := file.SetCellValue(sheetName, cellName(1, titleRow), title); err != nil {
		return nil, fmt.Errorf("failed to set title: %w", err)
	}

	if err := e.writeHeader(file); err != nil {
		return nil, err
	}

	for i, step := range stepper.Steps {
		if err := writeStepRow(file, dataRowStart+i, step); err != nil {
			return nil, fmt.Errorf("failed to write step %s: %w", step.Code, err)
		}
	}

	if err := file.SetColWidth(sheetName, "A", "A", 8); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := file.SetColWidth(sheetName, "B", "H", 24); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("History workbook rendered",
		zap.String("title", title),
		zap.Int("step_count", len(stepper.Steps)),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

func (e *XLSXExporter) writeHeader(file *excelize.File) error {
	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range headers {
		if err := file.SetCellValue(sheetName, cellName(i+1, headerRow), h); err != nil {
			return fmt.Errorf("failed to set header %q: %w", h, err)
		}
	}

	return file.SetCellStyle(sheetName, cellName(1, headerRow), cellName(len(headers), headerRow), style)
}

func writeStepRow(file *excelize.File, row int, step workflow.StepView) error {
	values := []interface{}{
		step.Order,
		step.Name,
		step.ResponsibleRole,
		stateLabels[step.State],
		"", "", "", "",
	}

	if rec := step.Record; rec != nil {
		values[4] = rec.DecisionStatus.Label
		if rec.Comment != nil {
			values[5] = *rec.Comment
		}
		values[6] = rec.Actor
		values[7] = rec.Timestamp.Format(timestampForm)
	}

	for col, v := range values {
		if err := file.SetCellValue(sheetName, cellName(col+1, row), v); err != nil {
			return err
		}
	}
	return nil
}

// cellName converts 1-based coordinates; inputs are always in range here
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
