package tui

import (
	"strings"

	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/nftoken"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type nftCard struct {
	svc  Services
	cfg  config.Config
	nft  models.NFT
	info *collectionInfo // nil without a collection
}

func newNFTCard(svc Services, cfg config.Config, nft models.NFT) *nftCard {
	c := &nftCard{svc: svc, cfg: cfg, nft: nft}
	if nft.Collection != "" {
		c.info = newCollectionInfo(svc, cfg, nft.Collection)
	}
	return c
}

func (c *nftCard) Init() tea.Cmd {
	if c.info == nil {
		return nil
	}
	return c.info.Init()
}

func (c *nftCard) Update(msg tea.Msg) tea.Cmd {
	if c.info == nil {
		return nil
	}
	return c.info.Update(msg)
}

// SetAccount applies a refreshed account in place, keeping the collection
// preview when the collection is unchanged. It reports false when acc is no
// longer this NFT.
func (c *nftCard) SetAccount(acc *models.Account) (tea.Cmd, bool) {
	nft := nftoken.ParseNFT(acc, c.cfg.ProgramID)
	if nft == nil || nft.Address != c.nft.Address {
		return nil, false
	}
	c.nft = *nft

	switch {
	case nft.Collection == "":
		if c.info != nil {
			c.info.Close()
			c.info = nil
		}
		return nil, true
	case c.info == nil:
		c.info = newCollectionInfo(c.svc, c.cfg, nft.Collection)
		return c.info.Init(), true
	default:
		return c.info.SetCollection(nft.Collection), true
	}
}

func (c *nftCard) Links() []string {
	links := []string{c.nft.Authority, c.nft.Holder}
	if c.nft.Delegate != "" {
		links = append(links, c.nft.Delegate)
	}
	if c.nft.Collection != "" {
		links = append(links, c.nft.Collection)
	}
	return links
}

func (c *nftCard) Refresh() {
	c.svc.FetchAccount(c.nft.Address)
}

func (c *nftCard) Close() {
	if c.info != nil {
		c.info.Close()
	}
}

func (c *nftCard) View(selected int) string {
	link := 0
	next := func(pubkey string) string {
		s := renderAddress(pubkey, addressOpts{Link: true, AlignRight: true}, link == selected)
		link++
		return s
	}

	rows := []string{
		tableHeaderStyle.Render("Overview"),
		row("Address", renderAddress(c.nft.Address, addressOpts{Raw: true, AlignRight: true}, false)),
		row("Authority", next(c.nft.Authority)),
		row("Holder", next(c.nft.Holder)),
	}

	if c.nft.Delegate != "" {
		rows = append(rows, row("Delegate", next(c.nft.Delegate)))
	} else {
		rows = append(rows, row("Delegate", "Not Delegated"))
	}

	if c.info != nil {
		collection := lipgloss.JoinVertical(lipgloss.Right, next(c.nft.Collection), c.info.View())
		rows = append(rows, row("Collection", collection))
	} else {
		rows = append(rows, row("Collection", "No Collection"))
	}

	var flags []string
	if c.nft.IsFrozen {
		flags = append(flags, "frozen")
	}
	if !c.nft.AuthorityCanUpdate {
		flags = append(flags, "immutable")
	}
	if len(flags) > 0 {
		rows = append(rows, subtleStyle.Render(strings.Join(flags, " · ")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
