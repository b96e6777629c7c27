package watcher

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventAccountUpdated        EventType = "account_updated"
	EventMetadataUpdated       EventType = "metadata_updated"
	EventCollectionNftsUpdated EventType = "collection_nfts_updated"
	EventImageLoaded           EventType = "image_loaded"
	EventImageFailed           EventType = "image_failed"
	EventFetchFailed           EventType = "fetch_failed"
)

// Event represents a change in one of the service lookups. Key is the address or
// URL the event concerns.
type Event struct {
	Type  EventType   `json:"type"`
	Key   string      `json:"key"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
