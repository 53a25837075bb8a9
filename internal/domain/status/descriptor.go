// Package status maps raw domain status codes to display descriptors.
package status

// ColorToken is the semantic color a badge is painted with
type ColorToken string

const (
	ColorNeutral ColorToken = "neutral"
	ColorInfo    ColorToken = "info"
	ColorPrimary ColorToken = "primary"
	ColorWarning ColorToken = "warning"
	ColorSuccess ColorToken = "success"
	ColorDanger  ColorToken = "danger"
)

// Icon names a badge glyph understood by the UI
type Icon string

const (
	IconCircle  Icon = "circle"
	IconClock   Icon = "clock"
	IconSearch  Icon = "search"
	IconEdit    Icon = "edit"
	IconCheck   Icon = "check"
	IconX       Icon = "x"
	IconArchive Icon = "archive"
	IconSend    Icon = "send"
	IconAlert   Icon = "alert"
	IconPlay    Icon = "play"
)

// Descriptor is the display form of a status code
type Descriptor struct {
	Label string     `json:"label"`
	Color ColorToken `json:"color"`
	Icon  Icon       `json:"icon"`
}

// Fallback returns the neutral descriptor used for codes outside a closed set.
// The raw code is kept as label so new server-side statuses stay readable.
func Fallback(code string) Descriptor {
	return Descriptor{
		Label: code,
		Color: ColorNeutral,
		Icon:  IconCircle,
	}
}

// NotStartedCode is the status shown for entities without any transition
const NotStartedCode = "non_demarre"

var notStarted = Descriptor{Label: "Non démarré", Color: ColorNeutral, Icon: IconCircle}
