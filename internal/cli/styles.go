// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#6366F1")
	// IncomeColor marks money received.
	IncomeColor = lipgloss.Color("#22C55E")
	// ExpenseColor marks money spent.
	ExpenseColor = lipgloss.Color("#F97316")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SubtitleStyle is used for secondary headings.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// IncomeStyle formats income amounts.
	IncomeStyle = lipgloss.NewStyle().
			Foreground(IncomeColor)

	// ExpenseStyle formats expense amounts.
	ExpenseStyle = lipgloss.NewStyle().
			Foreground(ExpenseColor)

	// HeaderStyle is used for table headers.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	TrashIcon   = "🗑️"
	ChartIcon   = "📊"
	FolderIcon  = "🗄️"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a whole-unit amount with digit grouping and the
// currency code, e.g. "12,500 JPY".
func FormatAmount(amount int64, currency string) string {
	if currency == "" {
		return amountPrinter.Sprintf("%d", amount)
	}
	return amountPrinter.Sprintf("%d %s", amount, currency)
}

// FormatSigned renders an amount colored by direction: income positive,
// expense negative.
func FormatSigned(amount int64, income bool, currency string) string {
	if income {
		return IncomeStyle.Render("+" + FormatAmount(amount, currency))
	}
	return ExpenseStyle.Render("-" + FormatAmount(amount, currency))
}

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

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}
