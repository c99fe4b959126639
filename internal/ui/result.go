package ui

import (
	"fmt"
	"strings"
)

// Detail is one labelled value inside a result box. Details render in
// the order they are given.
type Detail struct {
	Key   string
	Value string
}

// Result represents a result box (success or failure)
type Result struct {
	Success         bool
	Title           string   // e.g., "Device commissioned"
	Details         []Detail // Labelled values to display
	Error           error    // Error (for failure results)
	Troubleshooting []string // Troubleshooting tips (for failure results)
	Width           int      // Terminal width
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Detail) *Result {
	return &Result{
		Success: true,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{
		Success:         false,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail key-value pair
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	if r.Success {
		return r.renderSuccess()
	}
	return r.renderFailure()
}

func (r *Result) renderSuccess() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string

	// Title with checkmark
	titleLine := SuccessTitleStyle.Render(fmt.Sprintf("   %s  %s", SuccessMarker, r.Title))
	lines = append(lines, "")
	lines = append(lines, titleLine)
	lines = append(lines, "")

	for _, d := range r.Details {
		keyStyled := ResultKeyStyle.Render(fmt.Sprintf("   %s:", d.Key))
		valueStyled := ResultValueStyle.Render(d.Value)
		lines = append(lines, keyStyled+" "+valueStyled)
	}

	lines = append(lines, "")

	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

func (r *Result) renderFailure() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string

	// Title with X mark
	titleLine := ErrorTitleStyle.Render(fmt.Sprintf("   %s  %s", FailureMarker, r.Title))
	lines = append(lines, "")
	lines = append(lines, titleLine)
	lines = append(lines, "")

	if r.Error != nil {
		errorLine := ErrorMessageStyle.Render("   Error: " + r.Error.Error())
		lines = append(lines, errorLine)
		lines = append(lines, "")
	}

	if len(r.Troubleshooting) > 0 {
		lines = append(lines, TroubleshootingTitleStyle.Render("   Troubleshooting:"))
		for _, tip := range r.Troubleshooting {
			lines = append(lines, TroubleshootingItemStyle.Render("     • "+tip))
		}
		lines = append(lines, "")
	}

	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// --- Convenience functions for quick rendering ---

// RenderSuccess renders a success box with the given title and details
func RenderSuccess(title string, details ...Detail) string {
	return NewSuccessResult(title, details...).Render()
}

// RenderFailure renders a failure box with the given title, error, and troubleshooting tips
func RenderFailure(title string, err error, troubleshooting []string) string {
	return NewFailureResult(title, err, troubleshooting).Render()
}
