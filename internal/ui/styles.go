package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("62")  // purple
	colorSecondary = lipgloss.Color("241") // gray
	colorMuted     = lipgloss.Color("240")
	colorHighlight = lipgloss.Color("212") // pink
	colorPositive  = lipgloss.Color("78")
	colorNegative  = lipgloss.Color("203")
)

// HeaderStyle is the title line.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// FieldStyle frames an unfocused element; FocusedFieldStyle a focused one.
var (
	FieldStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
	FocusedFieldStyle = FieldStyle.
				BorderForeground(colorPrimary)
)

// SurfaceStyle frames the context surface.
var SurfaceStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// NarrativeStrong renders <strong> spans in the narrative.
var NarrativeStrong = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// MentionedHeader labels the card list.
var MentionedHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorSecondary).
	MarginTop(1)

// CardStyle frames one card.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1).
	MarginTop(1)

// CardName is the entity name on a card.
var CardName = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

// LogoStyle is the initial badge; its background is set per organization.
var LogoStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Padding(0, 1).
	MarginRight(1)

var (
	PriceUp   = lipgloss.NewStyle().Foreground(colorPositive)
	PriceDown = lipgloss.NewStyle().Foreground(colorNegative)
)

// CardMuted is used for loading summaries, footers and image links.
var CardMuted = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Italic(true)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorHighlight).
	Padding(1, 2)

// DebugHeaderStyle labels debug overlay sections.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
