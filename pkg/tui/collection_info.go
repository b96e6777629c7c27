package tui

import (
	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/nftoken"
	"nftokview/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// collectionInfo is the inline collection preview embedded in the NFT card: the
// collection image plus its metadata name.
type collectionInfo struct {
	svc        Services
	cfg        config.Config
	collection string
	image      *imageView

	// metadata URL a fetch was issued for, so each URL is requested once
	requestedMetadata string
}

func newCollectionInfo(svc Services, cfg config.Config, collection string) *collectionInfo {
	return &collectionInfo{
		svc:        svc,
		cfg:        cfg,
		collection: collection,
		image:      newImageView(svc, "", cfg.CollectionImageSize, cfg.ImageTimeout()),
	}
}

func (c *collectionInfo) Init() tea.Cmd {
	c.svc.FetchAccount(c.collection)
	return tea.Batch(c.image.Init(), c.refresh())
}

// SetCollection switches the preview to another collection address.
func (c *collectionInfo) SetCollection(collection string) tea.Cmd {
	if collection == c.collection {
		return nil
	}
	c.collection = collection
	c.requestedMetadata = ""
	c.svc.FetchAccount(collection)
	return c.refresh()
}

func (c *collectionInfo) record() *models.Collection {
	acc, ok := c.svc.Account(c.collection)
	if !ok {
		return nil
	}
	return nftoken.ParseCollection(acc, c.cfg.ProgramID)
}

func (c *collectionInfo) metadata() *models.Metadata {
	rec := c.record()
	if rec == nil || rec.MetadataURL == "" {
		return nil
	}
	md, _ := c.svc.Metadata(rec.MetadataURL)
	return md
}

// refresh re-derives the record and metadata from the service lookups and
// points the image view at the current image URL.
func (c *collectionInfo) refresh() tea.Cmd {
	rec := c.record()
	if rec != nil && rec.MetadataURL != "" && rec.MetadataURL != c.requestedMetadata {
		c.requestedMetadata = rec.MetadataURL
		if _, ok := c.svc.Metadata(rec.MetadataURL); !ok {
			c.svc.FetchMetadata(rec.MetadataURL)
		}
	}

	imageURL := ""
	if md := c.metadata(); md != nil {
		imageURL = md.Image
	}
	return c.image.SetURL(imageURL)
}

func (c *collectionInfo) Update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	cmds = append(cmds, c.image.Update(msg))
	if ev, ok := msg.(watcher.Event); ok {
		switch ev.Type {
		case watcher.EventAccountUpdated, watcher.EventMetadataUpdated:
			cmds = append(cmds, c.refresh())
		}
	}
	return tea.Batch(cmds...)
}

// Name is the collection's metadata name, or "Loading..." until the metadata
// resolves. A resolved document without a name renders empty.
func (c *collectionInfo) Name() string {
	if md := c.metadata(); md != nil {
		return md.Name
	}
	return "Loading..."
}

func (c *collectionInfo) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Center, c.image.View(), "  ", c.Name())
}

func (c *collectionInfo) Close() {
	c.image.Close()
}
