package watcher

import (
	"context"
	"sync"
	"time"

	"nftokview/pkg/cache"
	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/rpc"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DataSource defines the interface for fetching chain and off-chain data.
// *rpc.Client implements it.
type DataSource interface {
	FetchAccountInfo(ctx context.Context, address string) (*models.Account, error)
	FetchCollectionNfts(ctx context.Context, collection string) ([]models.NFT, error)
	FetchMetadata(ctx context.Context, url string) (*models.Metadata, error)
	FetchImage(ctx context.Context, url string) (*models.CachedImage, error)
}

// AccountService looks up accounts and refreshes them in the background.
type AccountService interface {
	// Account returns the last fetched account. resolved is false until a fetch
	// completes; a resolved nil account does not exist on chain.
	Account(address string) (acc *models.Account, resolved bool)
	FetchAccount(address string)
}

// MetadataService looks up off-chain metadata by URL.
type MetadataService interface {
	Metadata(url string) (*models.Metadata, bool)
	FetchMetadata(url string)
}

// CollectionService enumerates the NFTs of a collection.
type CollectionService interface {
	CollectionNfts(collection string) ([]models.NFT, bool)
	FetchCollectionNfts(collection string)
}

// ImageService resolves image URLs to cached, decoded images.
type ImageService interface {
	Image(url string) (*models.CachedImage, bool)
	ImageFailed(url string) bool
	FetchImage(url string)
}

// ImageInfo is the event payload for a loaded image.
type ImageInfo struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// Watcher owns the account, metadata, collection and image lookups and notifies
// subscribers whenever one of them changes.
type Watcher struct {
	config config.Config

	accounts       map[string]*models.Account
	metadata       map[string]*models.Metadata
	collectionNfts map[string][]models.NFT
	images         map[string]decodedImage
	maxImages      int
	imageFailures  map[string]bool

	accountGroup    singleflight.Group
	metadataGroup   singleflight.Group
	collectionGroup singleflight.Group
	imageGroup      singleflight.Group

	subscribers []Subscriber
	closed      bool
	mu          sync.RWMutex

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	dataSource DataSource
	cache      cache.Backend
	log        zerolog.Logger
	now        func() time.Time
}

// defaultMaxImages bounds the decoded images kept in memory. Older entries are
// reloaded through the image cache.
const defaultMaxImages = 64

type decodedImage struct {
	img       *models.CachedImage
	expiresAt time.Time
}

// NewWatcher creates a new Watcher instance. imageCache may be nil.
func NewWatcher(cfg config.Config, imageCache cache.Backend) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		config:         cfg,
		accounts:       make(map[string]*models.Account),
		metadata:       make(map[string]*models.Metadata),
		collectionNfts: make(map[string][]models.NFT),
		images:         make(map[string]decodedImage),
		maxImages:      defaultMaxImages,
		imageFailures:  make(map[string]bool),
		ctx:            ctx,
		cancel:         cancel,
		dataSource:     rpc.NewClient(cfg),
		cache:          imageCache,
		log:            config.Logger.With().Str("component", "watcher").Logger(),
		now:            time.Now,
	}
}

// SetDataSource allows overriding the data source (useful for testing).
func (w *Watcher) SetDataSource(ds DataSource) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dataSource = ds
}

func (w *Watcher) source() DataSource {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dataSource
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (w *Watcher) Subscribe() Subscriber {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := make(Subscriber, 100)
	if w.closed {
		close(ch)
		return ch
	}
	w.subscribers = append(w.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (w *Watcher) Unsubscribe(ch Subscriber) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, sub := range w.subscribers {
		if sub == ch {
			w.subscribers = append(w.subscribers[:i], w.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (w *Watcher) notify(event Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	for _, sub := range w.subscribers {
		select {
		case sub <- event:
		default:
			w.log.Warn().Str("event", string(event.Type)).Str("key", event.Key).Msg("subscriber full, dropping event")
		}
	}
}

// Close cancels in-flight fetches, waits for them and closes every subscriber.
func (w *Watcher) Close() {
	w.cancel()
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	for _, sub := range w.subscribers {
		close(sub)
	}
	w.subscribers = nil
}

// spawn runs fn in the background unless the watcher is closed.
func (w *Watcher) spawn(fn func()) {
	w.mu.RLock()
	closed := w.closed
	w.mu.RUnlock()
	if closed || w.ctx.Err() != nil {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn()
	}()
}

func (w *Watcher) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(w.ctx, w.config.RequestTimeout())
}

func (w *Watcher) fail(key string, err error) {
	w.log.Warn().Str("key", key).Err(err).Msg("fetch failed")
	w.notify(Event{Type: EventFetchFailed, Key: key, Error: err.Error()})
}

// Account returns the cached account at address.
func (w *Watcher) Account(address string) (*models.Account, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	acc, ok := w.accounts[address]
	return acc, ok
}

// FetchAccount refreshes the account at address without blocking.
func (w *Watcher) FetchAccount(address string) {
	if address == "" {
		return
	}
	w.spawn(func() {
		_, _, _ = w.accountGroup.Do(address, func() (interface{}, error) {
			ctx, cancel := w.requestContext()
			defer cancel()
			acc, err := w.source().FetchAccountInfo(ctx, address)
			if err != nil {
				w.fail(address, err)
				return nil, err
			}
			w.mu.Lock()
			w.accounts[address] = acc
			w.mu.Unlock()
			w.log.Debug().Str("address", address).Bool("exists", acc != nil).Msg("account updated")
			w.notify(Event{Type: EventAccountUpdated, Key: address, Data: acc})
			return acc, nil
		})
	})
}

// Metadata returns the cached metadata document at url.
func (w *Watcher) Metadata(url string) (*models.Metadata, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	md, ok := w.metadata[url]
	return md, ok
}

// FetchMetadata refreshes the metadata document at url without blocking.
func (w *Watcher) FetchMetadata(url string) {
	if url == "" {
		return
	}
	w.spawn(func() {
		_, _, _ = w.metadataGroup.Do(url, func() (interface{}, error) {
			ctx, cancel := w.requestContext()
			defer cancel()
			md, err := w.source().FetchMetadata(ctx, url)
			if err != nil {
				w.fail(url, err)
				return nil, err
			}
			w.mu.Lock()
			w.metadata[url] = md
			w.mu.Unlock()
			w.notify(Event{Type: EventMetadataUpdated, Key: url, Data: md})
			return md, nil
		})
	})
}

// CollectionNfts returns the cached NFT list of collection.
func (w *Watcher) CollectionNfts(collection string) ([]models.NFT, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	nfts, ok := w.collectionNfts[collection]
	return nfts, ok
}

// FetchCollectionNfts refreshes the NFT list of collection without blocking.
func (w *Watcher) FetchCollectionNfts(collection string) {
	if collection == "" {
		return
	}
	w.spawn(func() {
		_, _, _ = w.collectionGroup.Do(collection, func() (interface{}, error) {
			ctx, cancel := w.requestContext()
			defer cancel()
			nfts, err := w.source().FetchCollectionNfts(ctx, collection)
			if err != nil {
				w.fail(collection, err)
				return nil, err
			}
			w.mu.Lock()
			w.collectionNfts[collection] = nfts
			w.mu.Unlock()
			w.notify(Event{Type: EventCollectionNftsUpdated, Key: collection, Data: len(nfts)})
			return nfts, nil
		})
	})
}

// Image returns the decoded image for url once it has loaded. Entries expire
// with the cache TTL, after which the URL has to be fetched again.
func (w *Watcher) Image(url string) (*models.CachedImage, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.images[url]
	if !ok || !w.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.img, true
}

// storeImage keeps img in memory, dropping expired entries and then the ones
// closest to expiry once maxImages is reached. Callers hold w.mu.
func (w *Watcher) storeImage(url string, img *models.CachedImage) {
	now := w.now()
	for k, e := range w.images {
		if !now.Before(e.expiresAt) {
			delete(w.images, k)
		}
	}
	delete(w.images, url)
	for len(w.images) >= w.maxImages && len(w.images) > 0 {
		var oldest string
		var at time.Time
		for k, e := range w.images {
			if oldest == "" || e.expiresAt.Before(at) {
				oldest, at = k, e.expiresAt
			}
		}
		delete(w.images, oldest)
	}
	w.images[url] = decodedImage{img: img, expiresAt: now.Add(w.config.CacheTTL())}
}

// ImageFailed reports whether the last load of url failed.
func (w *Watcher) ImageFailed(url string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.imageFailures[url]
}

// FetchImage loads url from the image cache or the network without blocking.
func (w *Watcher) FetchImage(url string) {
	if url == "" {
		return
	}
	w.spawn(func() {
		_, _, _ = w.imageGroup.Do(url, func() (interface{}, error) {
			ctx, cancel := w.requestContext()
			defer cancel()
			img, err := w.loadImage(ctx, url)
			if err != nil {
				w.mu.Lock()
				w.imageFailures[url] = true
				w.mu.Unlock()
				w.log.Debug().Str("url", url).Err(err).Msg("image failed")
				w.notify(Event{Type: EventImageFailed, Key: url, Error: err.Error()})
				return nil, err
			}
			w.mu.Lock()
			w.storeImage(url, img)
			delete(w.imageFailures, url)
			w.mu.Unlock()
			w.notify(Event{Type: EventImageLoaded, Key: url, Data: ImageInfo{URL: url, ContentType: img.ContentType, Size: len(img.Data)}})
			return img, nil
		})
	})
}

func (w *Watcher) loadImage(ctx context.Context, url string) (*models.CachedImage, error) {
	if w.cache != nil {
		entry, ok, err := w.cache.Get(ctx, url)
		if err != nil {
			w.log.Warn().Str("url", url).Err(err).Msg("image cache read failed")
		} else if ok {
			if img, err := rpc.DecodeImage(url, entry.ContentType, entry.Data); err == nil {
				return img, nil
			}
			_ = w.cache.Delete(ctx, url)
		}
	}

	img, err := w.source().FetchImage(ctx, url)
	if err != nil {
		return nil, err
	}
	if w.cache != nil {
		entry := cache.Entry{ContentType: img.ContentType, Data: img.Data}
		if err := w.cache.Set(ctx, url, entry, w.config.CacheTTL()); err != nil {
			w.log.Warn().Str("url", url).Err(err).Msg("image cache write failed")
		}
	}
	return img, nil
}
