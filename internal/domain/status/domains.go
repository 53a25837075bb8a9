package status

// Domain names under which resolvers are registered
const (
	DomainBooking      = "booking"
	DomainLegalDeposit = "legal_deposit"
	DomainContent      = "content"
	DomainEditorial    = "editorial"
	DomainDecision     = "decision"
)

// BookingStatus is the lifecycle of a cultural space booking
type BookingStatus string

const (
	BookingInProgress BookingStatus = "en_cours"
	BookingInStudy    BookingStatus = "en_etude"
	BookingInApproval BookingStatus = "en_validation"
	BookingConfirmed  BookingStatus = "confirmee"
	BookingClosed     BookingStatus = "cloturee"
	BookingArchived   BookingStatus = "archivee_sans_suite"
	BookingUnknown    BookingStatus = "unknown"
)

// LegalDepositStatus is the lifecycle of a legal deposit declaration
type LegalDepositStatus string

const (
	LegalDepositChecking  LegalDepositStatus = "en_verification"
	LegalDepositCommittee LegalDepositStatus = "en_validation"
	LegalDepositValidated LegalDepositStatus = "valide"
	LegalDepositAssigned  LegalDepositStatus = "attribue"
	LegalDepositRejected  LegalDepositStatus = "rejete"
	LegalDepositUnknown   LegalDepositStatus = "unknown"
)

// ContentStatus is the lifecycle of a CMS content item
type ContentStatus string

const (
	ContentDraft     ContentStatus = "brouillon"
	ContentInReview  ContentStatus = "en_revision"
	ContentApproved  ContentStatus = "approuve"
	ContentPublished ContentStatus = "publie"
	ContentArchived  ContentStatus = "archive"
	ContentUnknown   ContentStatus = "unknown"
)

// EditorialStatus is the lifecycle of an editorial monitoring case
type EditorialStatus string

const (
	EditorialAnalysis     EditorialStatus = "en_analyse"
	EditorialControl      EditorialStatus = "en_controle"
	EditorialCompliant    EditorialStatus = "conforme"
	EditorialNonCompliant EditorialStatus = "non_conforme"
	EditorialUnknown      EditorialStatus = "unknown"
)

// DecisionCode is the display domain of submitted decisions
type DecisionCode string

const DecisionUnknown DecisionCode = "unknown"

// NewBookingResolver returns the booking badge table
func NewBookingResolver() *Resolver[BookingStatus] {
	return NewResolver(DomainBooking, BookingUnknown, map[BookingStatus]Descriptor{
		BookingInProgress: {Label: "En cours", Color: ColorInfo, Icon: IconClock},
		BookingInStudy:    {Label: "En étude", Color: ColorInfo, Icon: IconSearch},
		BookingInApproval: {Label: "En validation", Color: ColorWarning, Icon: IconClock},
		BookingConfirmed:  {Label: "Confirmée", Color: ColorPrimary, Icon: IconCheck},
		BookingClosed:     {Label: "Clôturée", Color: ColorSuccess, Icon: IconCheck},
		BookingArchived:   {Label: "Archivée sans suite", Color: ColorDanger, Icon: IconArchive},
	})
}

// NewLegalDepositResolver returns the legal deposit badge table
func NewLegalDepositResolver() *Resolver[LegalDepositStatus] {
	return NewResolver(DomainLegalDeposit, LegalDepositUnknown, map[LegalDepositStatus]Descriptor{
		LegalDepositChecking:  {Label: "En vérification", Color: ColorInfo, Icon: IconSearch},
		LegalDepositCommittee: {Label: "En validation", Color: ColorWarning, Icon: IconClock},
		LegalDepositValidated: {Label: "Validé", Color: ColorPrimary, Icon: IconCheck},
		LegalDepositAssigned:  {Label: "Numéro attribué", Color: ColorSuccess, Icon: IconCheck},
		LegalDepositRejected:  {Label: "Rejeté", Color: ColorDanger, Icon: IconX},
	})
}

// NewContentResolver returns the CMS badge table
func NewContentResolver() *Resolver[ContentStatus] {
	return NewResolver(DomainContent, ContentUnknown, map[ContentStatus]Descriptor{
		ContentDraft:     {Label: "Brouillon", Color: ColorNeutral, Icon: IconEdit},
		ContentInReview:  {Label: "En révision", Color: ColorWarning, Icon: IconSearch},
		ContentApproved:  {Label: "Approuvé", Color: ColorPrimary, Icon: IconCheck},
		ContentPublished: {Label: "Publié", Color: ColorSuccess, Icon: IconSend},
		ContentArchived:  {Label: "Archivé", Color: ColorNeutral, Icon: IconArchive},
	})
}

// NewEditorialResolver returns the editorial monitoring badge table
func NewEditorialResolver() *Resolver[EditorialStatus] {
	return NewResolver(DomainEditorial, EditorialUnknown, map[EditorialStatus]Descriptor{
		EditorialAnalysis:     {Label: "En analyse", Color: ColorInfo, Icon: IconSearch},
		EditorialControl:      {Label: "En contrôle", Color: ColorWarning, Icon: IconClock},
		EditorialCompliant:    {Label: "Conforme", Color: ColorSuccess, Icon: IconCheck},
		EditorialNonCompliant: {Label: "Non conforme", Color: ColorDanger, Icon: IconAlert},
	})
}

// NewDecisionResolver returns the descriptors of decisions shown in history
func NewDecisionResolver() *Resolver[DecisionCode] {
	return NewResolver(DomainDecision, DecisionUnknown, map[DecisionCode]Descriptor{
		"demarrer":            {Label: "Démarré", Color: ColorInfo, Icon: IconPlay},
		"valider":             {Label: "Validé", Color: ColorSuccess, Icon: IconCheck},
		"refuser":             {Label: "Refusé", Color: ColorDanger, Icon: IconX},
		"demander_complement": {Label: "Complément demandé", Color: ColorWarning, Icon: IconAlert},
		"mettre_en_revision":  {Label: "Mis en révision", Color: ColorWarning, Icon: IconEdit},
		"cloturer":            {Label: "Clôturé", Color: ColorSuccess, Icon: IconCheck},
		"attribuer":           {Label: "Numéro attribué", Color: ColorSuccess, Icon: IconCheck},
		"publier":             {Label: "Publié", Color: ColorSuccess, Icon: IconSend},
		"archiver":            {Label: "Archivé", Color: ColorNeutral, Icon: IconArchive},
		"relancer":            {Label: "Relancé", Color: ColorWarning, Icon: IconClock},
		"confirmer":           {Label: "Confirmé", Color: ColorSuccess, Icon: IconCheck},
	})
}
