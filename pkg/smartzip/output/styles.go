package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
)

// 256-color palette.
var (
	accent = lipgloss.Color("39")
	green  = lipgloss.Color("42")
	orange = lipgloss.Color("214")
	red    = lipgloss.Color("196")
	gray   = lipgloss.Color("245")
	white  = lipgloss.Color("255")
)

var (
	// totalsBox frames the run or plan totals.
	totalsBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1).
			MarginBottom(1)

	// problemsBox frames missing inputs and skipped paths.
	problemsBox = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(orange).
			Padding(0, 1).
			MarginTop(1)

	titleText    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelText    = lipgloss.NewStyle().Foreground(gray)
	pathText     = lipgloss.NewStyle().Foreground(white)
	sizeText     = lipgloss.NewStyle().Bold(true).Foreground(accent)
	columnText   = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(gray)
	dimText      = lipgloss.NewStyle().Foreground(gray)
	missingText  = lipgloss.NewStyle().Foreground(red)
	skippedText  = lipgloss.NewStyle().Foreground(orange)
	noticeText   = lipgloss.NewStyle().Bold(true).Foreground(orange)
	deflatedText = lipgloss.NewStyle().Foreground(green)
)

// methodText colors an entry's storage method: deflated entries stand out,
// stored ones and directory markers recede.
func methodText(m types.Method) lipgloss.Style {
	if m == types.MethodDeflate {
		return deflatedText
	}
	return dimText
}
