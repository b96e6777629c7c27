package tui

import (
	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/nftoken"

	tea "github.com/charmbracelet/bubbletea"
)

// card is one account panel. selected indexes into Links, -1 for none.
type card interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(selected int) string
	// Links lists the addresses the user can navigate to, in display order.
	Links() []string
	Refresh()
	Close()
}

// accountSetter is a card that can take a refreshed account without being
// rebuilt.
type accountSetter interface {
	SetAccount(acc *models.Account) (tea.Cmd, bool)
}

// newSection picks the card for acc. NFT parsing wins over collection parsing;
// anything else falls back to the generic account card.
func newSection(svc Services, cfg config.Config, acc *models.Account) card {
	switch nftoken.Classify(acc, cfg.ProgramID) {
	case nftoken.KindNFT:
		return newNFTCard(svc, cfg, *nftoken.ParseNFT(acc, cfg.ProgramID))
	case nftoken.KindCollection:
		return newCollectionCard(svc, *nftoken.ParseCollection(acc, cfg.ProgramID))
	default:
		return newUnknownCard(svc, *acc)
	}
}
