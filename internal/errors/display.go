package errors

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("196")).Padding(0, 1)
	defaultWidth = 80
)

// terminalWidth returns the usable display width, capped for readability.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	if width > 100 {
		return 100
	}
	return width
}

// FormatForCLI renders an error as a styled box for terminal display.
// Non-structured errors get a plain one-line rendering.
func FormatForCLI(err error) string {
	perr, ok := err.(*PipelineError)
	if !ok {
		return fmt.Sprintf("\nError: %v\n", err)
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%s error [%s-%s]", titleCase(string(perr.Category)), perr.Category, perr.Code)))
	sb.WriteString("\n")
	sb.WriteString(perr.Message)

	if perr.Operation != "" {
		sb.WriteString("\n\n")
		sb.WriteString(detailStyle.Render(fmt.Sprintf("Operation: %s", perr.Operation)))
	}

	if len(perr.Context) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(detailStyle.Render("Details:"))
		for key, value := range perr.Context {
			sb.WriteString("\n")
			sb.WriteString(detailStyle.Render(fmt.Sprintf("  %s: %v", key, value)))
		}
	}

	if len(perr.Troubleshooting) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(stepStyle.Render("How to resolve:"))
		for i, step := range perr.Troubleshooting {
			sb.WriteString("\n")
			sb.WriteString(stepStyle.Render(fmt.Sprintf("  %d. %s", i+1, step)))
		}
	}

	if perr.OriginalError != nil {
		sb.WriteString("\n\n")
		sb.WriteString(detailStyle.Render(fmt.Sprintf("Technical details: %v", perr.OriginalError)))
	}

	return "\n" + boxStyle.Width(terminalWidth()-2).Render(sb.String()) + "\n"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// DisplayErrorSummary provides a brief one-line summary for logs.
func DisplayErrorSummary(err error) string {
	if perr, ok := err.(*PipelineError); ok {
		return fmt.Sprintf("%s-%s: %s", perr.Category, perr.Code, perr.Message)
	}

	errStr := err.Error()
	if len(errStr) > 100 {
		return errStr[:97] + "..."
	}
	return errStr
}
