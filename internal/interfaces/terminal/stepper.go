// Package terminal renders workflow views for the portalctl command line.
package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bnrm/backoffice/internal/application/service"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/status"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

const timestampLayout = "02/01/2006 15:04"

var palette = map[status.ColorToken]lipgloss.Color{
	status.ColorNeutral: lipgloss.Color("245"),
	status.ColorInfo:    lipgloss.Color("39"),
	status.ColorPrimary: lipgloss.Color("63"),
	status.ColorWarning: lipgloss.Color("214"),
	status.ColorSuccess: lipgloss.Color("42"),
	status.ColorDanger:  lipgloss.Color("196"),
}

var stateMarkers = map[workflow.StepState]string{
	workflow.StepCompleted: " ",
	workflow.StepCurrent:   "▶",
	workflow.StepPending:   " ",
}

// Renderer paints views as styled text
type Renderer struct {
	title   lipgloss.Style
	faint   lipgloss.Style
	current lipgloss.Style
	done    lipgloss.Style
}

// NewRenderer creates a Renderer with the default palette
func NewRenderer() *Renderer {
	return &Renderer{
		title:   lipgloss.NewStyle().Bold(true),
		faint:   lipgloss.NewStyle().Foreground(palette[status.ColorNeutral]),
		current: lipgloss.NewStyle().Bold(true).Foreground(palette[status.ColorPrimary]),
		done:    lipgloss.NewStyle().Foreground(palette[status.ColorSuccess]),
	}
}

// Badge renders a status descriptor as a colored label
func (r *Renderer) Badge(d status.Descriptor) string {
	color, ok := palette[d.Color]
	if !ok {
		color = palette[status.ColorNeutral]
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render("[" + d.Label + "]")
}

// View renders the header, stepper and offered actions of a snapshot
func (r *Renderer) View(snap service.ViewSnapshot) string {
	var b strings.Builder

	b.WriteString(r.title.Render(fmt.Sprintf("%s · %s", snap.Kind, snap.EntityID)))
	if snap.Placeholder {
		b.WriteString("\n")
		b.WriteString(r.faint.Render("Workflow introuvable pour ce type de dossier."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("  ")
	b.WriteString(r.Badge(snap.StatusBadge))
	b.WriteString("\n\n")
	b.WriteString(r.Stepper(snap.Stepper))

	b.WriteString("\n")
	b.WriteString(r.Actions(snap.Actions))
	return b.String()
}

// Stepper renders one line per step, with the matched history entry below it
func (r *Renderer) Stepper(s workflow.Stepper) string {
	var b strings.Builder

	for _, step := range s.Steps {
		line := fmt.Sprintf("%s %2s  %s", stateMarkers[step.State], step.Badge, step.Name)
		if step.ResponsibleRole != "" {
			line += r.faint.Render("  (" + step.ResponsibleRole + ")")
		}

		switch step.State {
		case workflow.StepCurrent:
			line = r.current.Render(line)
		case workflow.StepCompleted:
			line = r.done.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")

		if rec := step.Record; rec != nil {
			b.WriteString("       ")
			b.WriteString(r.Badge(rec.DecisionStatus))
			b.WriteString(r.faint.Render(fmt.Sprintf(" %s, %s", rec.Actor, rec.Timestamp.Format(timestampLayout))))
			b.WriteString("\n")
			if rec.Comment != nil && strings.TrimSpace(*rec.Comment) != "" {
				b.WriteString(r.faint.Render("       « " + *rec.Comment + " »"))
				b.WriteString("\n")
			}
		}
	}

	if s.NotStarted {
		b.WriteString(r.faint.Render("Workflow non démarré."))
		b.WriteString("\n")
	}
	return b.String()
}

// Actions lists the decisions offered at the current step
func (r *Renderer) Actions(actions []workflow.Action) string {
	if len(actions) == 0 {
		return r.faint.Render("Aucune action disponible.") + "\n"
	}

	var b strings.Builder
	b.WriteString(r.title.Render("Actions"))
	b.WriteString("\n")
	for _, a := range actions {
		fmt.Fprintf(&b, "  %-20s %s", a.Decision, a.Label)
		if a.RequiresComment {
			b.WriteString(r.faint.Render(" (commentaire obligatoire)"))
		}
		for _, f := range a.RequiredFields {
			b.WriteString(r.faint.Render(fmt.Sprintf(" --field %s=…", f.Name)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Result renders the notice of a submission
func (r *Renderer) Result(res service.SubmitResult) string {
	d := status.Descriptor{Label: string(res.Outcome), Color: status.ColorDanger}
	if res.Succeeded() {
		d.Color = status.ColorSuccess
	} else if res.Outcome == service.OutcomeTransient {
		d.Color = status.ColorWarning
	}
	return r.Badge(d) + " " + res.Notice + "\n"
}

// Steps renders a step catalog as a bordered table
func (r *Renderer) Steps(steps []entity.Step) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.faint).
		Headers("ORDRE", "CODE", "ÉTAPE", "RESPONSABLE")

	for _, s := range steps {
		t.Row(fmt.Sprintf("%d", s.Order), s.Code, s.Name, s.ResponsibleRole)
	}
	return t.String()
}
