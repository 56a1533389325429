package iostreams

import "github.com/charmbracelet/lipgloss"

// Named colors — canonical color values by X11/CSS name (or nearest
// recognized name). These define the actual colors. They never change.
var (
	ColorBurntOrange = lipgloss.Color("#E8714A") // Warm orange (nearest: X11 Coral)
	ColorDeepSkyBlue = lipgloss.Color("#00BFFF") // Exact X11/CSS: DeepSkyBlue
	ColorEmerald     = lipgloss.Color("#04B575") // Vivid green (nearest: X11 MediumSeaGreen)
	ColorAmber       = lipgloss.Color("#FFCC00") // Warm yellow (nearest: X11 Gold)
	ColorHotPink     = lipgloss.Color("#FF5F87") // Bright pink (nearest: X11 HotPink)
	ColorDimGray     = lipgloss.Color("#626262") // Near X11 DimGray
	ColorOrchid      = lipgloss.Color("#AD58B4") // Purple-pink (nearest: X11 MediumOrchid)
	ColorSkyBlue     = lipgloss.Color("#87CEEB") // Exact X11/CSS: SkyBlue
	ColorCharcoal    = lipgloss.Color("#4A4A4A") // Dark gray
	ColorSilver      = lipgloss.Color("#A0A0A0") // Muted silver (nearest: X11 DarkGray)
)

// Semantic theme — intent-based aliases. Swap the RHS to change the
// entire color theme.
var (
	ColorPrimary   = ColorBurntOrange // Brand primary
	ColorSecondary = ColorDeepSkyBlue // Brand secondary
	ColorSuccess   = ColorEmerald
	ColorWarning   = ColorAmber
	ColorError     = ColorHotPink
	ColorMuted     = ColorDimGray
	ColorHighlight = ColorOrchid
	ColorInfo      = ColorSkyBlue
	ColorDisabled  = ColorCharcoal
	ColorSubtle    = ColorSilver
)

// Text styles — common text formatting.
var (
	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	SubtitleStyle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	ErrorStyle     = lipgloss.NewStyle().Foreground(ColorError)
	SuccessStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle   = lipgloss.NewStyle().Foreground(ColorWarning)
	MutedStyle     = lipgloss.NewStyle().Foreground(ColorMuted)
	HighlightStyle = lipgloss.NewStyle().Foreground(ColorHighlight)
	DisabledStyle  = lipgloss.NewStyle().Foreground(ColorDisabled)
)

// Concrete color styles — pure foreground color, no decorations.
// Used by ColorScheme concrete color methods (Red, Blue, etc.).
var (
	BlueStyle = lipgloss.NewStyle().Foreground(ColorDeepSkyBlue)
	CyanStyle = lipgloss.NewStyle().Foreground(ColorInfo)
)

// Status indicator styles for deployment and service state rendering.
var (
	StatusActiveStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Bold(true)

	StatusDrainingStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	StatusFailedStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	StatusWarningStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	StatusInfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)
)

// StatusIndicator returns the appropriate style and symbol for a rollout
// or deployment status keyword.
func StatusIndicator(status string) (lipgloss.Style, string) {
	switch status {
	case "completed", "succeeded", "active":
		return StatusActiveStyle, "\u25cf" // ●
	case "draining", "inactive":
		return StatusDrainingStyle, "\u25cb" // ○
	case "failed", "rejected":
		return StatusFailedStyle, "\u2717" // ✗
	case "timeout":
		return StatusWarningStyle, "\u26a0" // ⚠
	case "in_progress", "pending", "provisioning", "stabilizing":
		return StatusInfoStyle, "\u25cb" // ○
	default:
		return MutedStyle, "\u25cb" // ○
	}
}
