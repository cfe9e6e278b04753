// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jcourtner/leadpipe/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5FAFFF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().
			PaddingRight(2)

	populationStyles = map[model.Population]lipgloss.Style{
		model.PopulationBroken:      lipgloss.NewStyle().Foreground(WarningColor),
		model.PopulationUnengaged:   lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1D3")),
		model.PopulationEngaged:     lipgloss.NewStyle().Foreground(SuccessColor).Bold(true),
		model.PopulationParked:      lipgloss.NewStyle().Foreground(SubtleColor),
		model.PopulationDeadDNC:     lipgloss.NewStyle().Foreground(ErrorColor).Bold(true),
		model.PopulationLost:        lipgloss.NewStyle().Foreground(SubtleColor),
		model.PopulationPartnership: lipgloss.NewStyle().Foreground(PrimaryColor),
		model.PopulationClosedWon:   lipgloss.NewStyle().Foreground(SuccessColor).Bold(true),
	}
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
	DNCIcon     = "⛔"
	PhoneIcon   = "☎"
	MailIcon    = "✉"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// FormatPopulation renders a population name in its status color.
func FormatPopulation(p model.Population) string {
	if style, ok := populationStyles[p]; ok {
		return style.Render(string(p))
	}
	return string(p)
}

// FormatDate renders a nilable date, or a subtle dash when unset.
func FormatDate(t *time.Time) string {
	if t == nil {
		return SubtleStyle.Render("—")
	}
	return t.Format("2006-01-02")
}

// FormatOverdue renders how long past due a follow-up is.
func FormatOverdue(followUp time.Time, now time.Time) string {
	days := int(now.Sub(followUp).Hours() / 24)
	if days <= 0 {
		return SuccessStyle.Render("due today")
	}
	return ErrorStyle.Render(fmt.Sprintf("%dd overdue", days))
}
