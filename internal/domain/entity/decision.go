package entity

// Decision is an operator-chosen action submitted at a given step
type Decision string

const (
	DecisionStart          Decision = "demarrer"
	DecisionValidate       Decision = "valider"
	DecisionReject         Decision = "refuser"
	DecisionRequestChanges Decision = "demander_complement"
	DecisionPutInReview    Decision = "mettre_en_revision"
	DecisionClose          Decision = "cloturer"
	DecisionAssign         Decision = "attribuer"
	DecisionPublish        Decision = "publier"
	DecisionArchive        Decision = "archiver"
	DecisionFollowUp       Decision = "relancer"
	DecisionConfirm        Decision = "confirmer"
)

// String returns the string representation of the decision
func (d Decision) String() string {
	return string(d)
}
