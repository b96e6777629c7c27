package tui

import (
	"image"
	"image/color"
	"testing"
	"time"

	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/nftoken"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

const (
	nftKey        = "DSMc9j3dTTqqk4ZUSNU2TbqxsZWr4ZjkveR9XD4SYXPu"
	holderKey     = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	authorityKey  = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	collectionKey = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	delegateKey   = "Dn4noZ5jgGfkntzcQSUZ8czkreiZ1ForXYoV2H8Dm7S1"
	ownerKey      = "67vHA8qZGCJKw1UNGUJZME4MwEWDRGWzp7MGvsut43A8"

	metadataURL = "https://meta.example/collection.json"
	imageURL    = "https://img.example/collection.png"
)

// fakeServices is an in-memory Services that records every refresh call.
type fakeServices struct {
	accounts    map[string]*models.Account
	metadata    map[string]*models.Metadata
	collections map[string][]models.NFT
	images      map[string]*models.CachedImage
	failed      map[string]bool
	calls       []string
}

func newFakeServices() *fakeServices {
	return &fakeServices{
		accounts:    make(map[string]*models.Account),
		metadata:    make(map[string]*models.Metadata),
		collections: make(map[string][]models.NFT),
		images:      make(map[string]*models.CachedImage),
		failed:      make(map[string]bool),
	}
}

func (f *fakeServices) Account(address string) (*models.Account, bool) {
	acc, ok := f.accounts[address]
	return acc, ok
}

func (f *fakeServices) FetchAccount(address string) {
	f.calls = append(f.calls, "FetchAccount:"+address)
}

func (f *fakeServices) Metadata(url string) (*models.Metadata, bool) {
	md, ok := f.metadata[url]
	return md, ok
}

func (f *fakeServices) FetchMetadata(url string) {
	f.calls = append(f.calls, "FetchMetadata:"+url)
}

func (f *fakeServices) CollectionNfts(collection string) ([]models.NFT, bool) {
	nfts, ok := f.collections[collection]
	return nfts, ok
}

func (f *fakeServices) FetchCollectionNfts(collection string) {
	f.calls = append(f.calls, "FetchCollectionNfts:"+collection)
}

func (f *fakeServices) Image(url string) (*models.CachedImage, bool) {
	img, ok := f.images[url]
	return img, ok
}

func (f *fakeServices) ImageFailed(url string) bool {
	return f.failed[url]
}

func (f *fakeServices) FetchImage(url string) {
	f.calls = append(f.calls, "FetchImage:"+url)
}

func (f *fakeServices) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ImageTimeoutMs = 5
	return cfg
}

func nftAccount(t *testing.T, nft models.NFT) *models.Account {
	t.Helper()
	data, err := nftoken.EncodeNFT(nft)
	require.NoError(t, err)
	return &models.Account{Address: nft.Address, Owner: nftoken.DefaultProgramID, Data: data, Space: uint64(len(data))}
}

func collectionAccount(t *testing.T, c models.Collection) *models.Account {
	t.Helper()
	data, err := nftoken.EncodeCollection(c)
	require.NoError(t, err)
	return &models.Account{Address: c.Address, Owner: nftoken.DefaultProgramID, Data: data, Space: uint64(len(data))}
}

func testImage() *models.CachedImage {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	return &models.CachedImage{URL: imageURL, ContentType: "image/png", Image: img}
}

// fire runs a tea.Tick command, which blocks until the tick is due.
func fire(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(time.Second):
		t.Fatal("tick never fired")
	}
	return nil
}
