package port

import "github.com/bnrm/backoffice/internal/domain/workflow"

// HistoryExporter renders a stepper as a spreadsheet
type HistoryExporter interface {
	ExportHistory(title string, stepper workflow.Stepper) ([]byte, error)
}
