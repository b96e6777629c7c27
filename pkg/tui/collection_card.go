package tui

import (
	"nftokview/pkg/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type collectionCard struct {
	svc        Services
	collection models.Collection
	count      *nftCount
}

func newCollectionCard(svc Services, collection models.Collection) *collectionCard {
	return &collectionCard{
		svc:        svc,
		collection: collection,
		count:      newNftCount(svc, collection.Address),
	}
}

func (c *collectionCard) Init() tea.Cmd {
	c.count.Init()
	return nil
}

func (c *collectionCard) Update(tea.Msg) tea.Cmd { return nil }

func (c *collectionCard) Links() []string {
	return []string{c.collection.Authority}
}

func (c *collectionCard) Refresh() {
	c.svc.FetchAccount(c.collection.Address)
}

func (c *collectionCard) Close() {}

func (c *collectionCard) View(selected int) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		tableHeaderStyle.Render("Overview"),
		row("Address", renderAddress(c.collection.Address, addressOpts{Raw: true, AlignRight: true}, false)),
		row("Authority", renderAddress(c.collection.Authority, addressOpts{Link: true, AlignRight: true}, selected == 0)),
		row("Number NFTs", c.count.View()),
	)
}
