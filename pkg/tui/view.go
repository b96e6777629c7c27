package tui

import (
	"fmt"

	"nftokview/pkg/utils"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("NFToken Explorer"),
		" ",
		subtleStyle.Render(fmt.Sprintf("%s • %s", m.config.Cluster, Version)),
	)

	var body string
	switch {
	case m.address == "":
		body = subtleStyle.Render("Enter an account address to begin.")
	case m.notFound:
		body = errStyle.Render("Account not found")
	case m.section == nil:
		body = fmt.Sprintf("%s Loading account...", m.spinner.View())
	default:
		body = m.section.View(m.selected)
	}

	var current string
	if m.address != "" {
		addr := m.address
		if m.selected < 0 {
			addr = selectedStyle.Render(addr)
		}
		current = subtleStyle.Render("Account ") + addr
		if n := len(m.history); n > 0 {
			current += subtleStyle.Render(fmt.Sprintf("  (back: %s)", utils.ShortAddress(m.history[n-1], 4)))
		}
	}

	parts := []string{header, "", current, boxStyle.Render(body)}

	if m.goingTo {
		parts = append(parts, "Go to: "+m.gotoInput.View())
	}
	if m.statusMessage != "" {
		parts = append(parts, infoStyle.Render(m.statusMessage))
	}
	parts = append(parts, m.help.View(keys))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
