package tui

import (
	"strconv"

	"nftokview/pkg/models"
	"nftokview/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// unknownCard is the fallback for accounts that are neither NFTs nor collections.
type unknownCard struct {
	svc Services
	acc models.Account
}

func newUnknownCard(svc Services, acc models.Account) *unknownCard {
	return &unknownCard{svc: svc, acc: acc}
}

func (c *unknownCard) Init() tea.Cmd { return nil }
func (c *unknownCard) Update(tea.Msg) tea.Cmd { return nil }
func (c *unknownCard) Links() []string { return []string{c.acc.Owner} }
func (c *unknownCard) Refresh() { c.svc.FetchAccount(c.acc.Address) }
func (c *unknownCard) Close() {}

func (c *unknownCard) View(selected int) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		tableHeaderStyle.Render("Account"),
		row("Address", renderAddress(c.acc.Address, addressOpts{Raw: true, AlignRight: true}, false)),
		row("Owner", renderAddress(c.acc.Owner, addressOpts{Link: true, AlignRight: true}, selected == 0)),
		row("Balance", utils.FormatSOL(c.acc.Lamports)+" SOL"),
		row("Data", utils.FormatBytes(c.acc.Space)),
		row("Executable", strconv.FormatBool(c.acc.Executable)),
	)
}
