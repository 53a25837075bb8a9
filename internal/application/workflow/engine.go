package workflow

import (
	"context"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
)

// Procedure is the server-side arbiter of transitions. Refusals are returned
// as an envelope with Success false and a user-facing message; the error is
// reserved for storage failures.
type Procedure interface {
	Advance(ctx context.Context, req port.TransitionRequest) (entity.TransitionResult, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Refusal messages shown to users verbatim
const (
	MsgUnknownKind     = "type de workflow inconnu"
	MsgNotStarted      = "le workflow n'est pas démarré"
	MsgAlreadyStarted  = "le workflow est déjà démarré"
	MsgInvalidStep     = "étape invalide"
	MsgFinished        = "workflow terminé"
	MsgUnknownDecision = "décision inconnue"
	MsgBackward        = "retour à une étape antérieure interdit"
	MsgConflict        = "le dossier a été modifié entre-temps, veuillez actualiser"
)

func reject(msg string) entity.TransitionResult {
	return entity.TransitionResult{Success: false, ErrorMessage: msg}
}
