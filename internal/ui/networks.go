package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/muurk/hacklet/internal/config"
)

// RenderNetworks renders the commissioned networks from the registry
// as a table, sorted by network id.
func RenderNetworks(registry *config.Registry) string {
	width := GetTerminalWidth()

	var lines []string

	title := TableHeaderStyle.Render("Commissioned networks")
	lines = append(lines, title)
	lines = append(lines, RenderHorizontalDivider(width-6))

	header := TableHeaderStyle.Render(
		fmt.Sprintf("%-10s %-18s %-20s %s", "NETWORK", "DEVICE", "NICKNAME", "LAST SEEN"))
	lines = append(lines, header)

	keys := make([]string, 0, len(registry.Networks))
	for key := range registry.Networks {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		lines = append(lines, MutedStyle.Render("(none - run 'hacklet commission' near a new socket)"))
	}
	for _, key := range keys {
		network := registry.Networks[key]
		lastSeen := "-"
		if !network.LastSeen.IsZero() {
			lastSeen = network.LastSeen.Format("2006-01-02 15:04")
		}
		nickname := network.Nickname
		if nickname == "" {
			nickname = "-"
		}
		lines = append(lines, TableCellStyle.Render(
			fmt.Sprintf("%-10s %-18s %-20s %s", key, network.DeviceID, nickname, lastSeen)))
	}

	return TableBoxStyle(width).Render(strings.Join(lines, "\n"))
}
