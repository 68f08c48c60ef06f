package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-polyarp/theme"
)

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8) string {
	return lipgloss.NewStyle().Foreground(theme.Hex(color)).Render("■")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color), name, desc)
}

// RenderLegend lists the step-grid pad colours.
func RenderLegend(items []LegendItem) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = RenderLegendItem(it.Color, it.Name, it.Desc)
	}
	return strings.Join(lines, "\n")
}

// LegendItem is one pad colour and its meaning.
type LegendItem struct {
	Color [3]uint8
	Name  string
	Desc  string
}
