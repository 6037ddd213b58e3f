package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stdout receives all human-readable output.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for paths and other data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for counters.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleMove        = lipgloss.NewStyle().Foreground(colorGreen)
	styleRemove      = lipgloss.NewStyle().Foreground(colorRed)
)

// status is a leading icon with its color.
type status struct {
	icon  string
	style lipgloss.Style
}

var (
	statusSuccess = status{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	statusError   = status{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	statusWarning = status{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	statusInfo    = status{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

const iconArrow = "→"

func (s status) println(msg string) {
	fmt.Fprintln(stdout, s.style.Render(s.icon)+" "+msg)
}

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	statusSuccess.println(fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	statusError.println(fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	statusWarning.println(StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	statusInfo.println(fmt.Sprintf(format, args...))
}

// printDetail prints an indented line.
func printDetail(msg string) {
	fmt.Fprintln(stdout, "  "+msg)
}

// printFile prints a written file.
func printFile(path string) {
	printDetail(StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Plan Display
// =============================================================================

// formatMove renders a hoist as "move  b@1.0.0 → /app/node_modules/b".
func formatMove(id, to string) string {
	return styleMove.Render("move  ") + " " + StyleValue.Render(id) + " " + StyleDim.Render(iconArrow+" "+to)
}

// formatRemove renders a removal as "remove b@1.0.0 (/app/node_modules/c/node_modules/b)".
func formatRemove(id, from string) string {
	return styleRemove.Render("remove") + " " + StyleValue.Render(id) + " " + StyleDim.Render("("+from+")")
}

// formatStats renders the plan counters on one line.
func formatStats(moves, removals, retained int) string {
	parts := []string{
		StyleNumber.Render(fmt.Sprint(moves)) + StyleDim.Render(" hoisted"),
		StyleNumber.Render(fmt.Sprint(removals)) + StyleDim.Render(" removed"),
	}
	if retained > 0 {
		parts = append(parts, StyleNumber.Render(fmt.Sprint(retained))+StyleDim.Render(" kept in place"))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}
