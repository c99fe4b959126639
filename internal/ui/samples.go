package ui

import (
	"fmt"
	"strings"

	"github.com/muurk/hacklet/internal/protocol"
)

// RenderSamples renders the power samples returned for one socket as
// a table. Each reading carries its age in seconds and the measured
// wattage.
func RenderSamples(networkID, channelID uint16, resp *protocol.SamplesResponse) string {
	width := GetTerminalWidth()

	var lines []string

	title := TableHeaderStyle.Render(
		fmt.Sprintf("Socket %d on network 0x%04x", channelID, networkID))
	lines = append(lines, title)
	lines = append(lines, RenderHorizontalDivider(width-6))

	header := TableHeaderStyle.Render(fmt.Sprintf("%-10s %s", "AGE (S)", "WATTS"))
	lines = append(lines, header)

	if len(resp.Samples) == 0 {
		lines = append(lines, MutedStyle.Render("(no samples)"))
	}
	for _, s := range resp.Samples {
		lines = append(lines, TableCellStyle.Render(fmt.Sprintf("%-10d %d", s.Time, s.Wattage)))
	}

	lines = append(lines, RenderHorizontalDivider(width-6))
	lines = append(lines, MutedStyle.Render(
		fmt.Sprintf("%d returned, %d still stored on the device", len(resp.Samples), resp.StoredCount)))

	return TableBoxStyle(width).Render(strings.Join(lines, "\n"))
}
