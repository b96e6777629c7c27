package models

import (
	"image"
	"time"
)

// Account holds the raw on-chain state of a single account.
type Account struct {
	Address    string    `json:"address"`
	Owner      string    `json:"owner"`
	Lamports   uint64    `json:"lamports"`
	Executable bool      `json:"executable"`
	Space      uint64    `json:"space"`
	Data       []byte    `json:"-"`
	Slot       uint64    `json:"slot"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// NFT is a parsed NFToken NFT account. Delegate and Collection are empty when unset.
type NFT struct {
	Address            string `json:"address"`
	Authority          string `json:"authority"`
	Holder             string `json:"holder"`
	Delegate           string `json:"delegate,omitempty"`
	Collection         string `json:"collection,omitempty"`
	MetadataURL        string `json:"metadata_url"`
	AuthorityCanUpdate bool   `json:"authority_can_update"`
	IsFrozen           bool   `json:"is_frozen"`
}

// Collection is a parsed NFToken collection account.
type Collection struct {
	Address            string `json:"address"`
	Authority          string `json:"authority"`
	AuthorityCanUpdate bool   `json:"authority_can_update"`
	MetadataURL        string `json:"metadata_url,omitempty"`
}

// Attribute is a single trait from off-chain metadata.
type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// Metadata is the off-chain JSON document referenced by an account's metadata URL.
type Metadata struct {
	Name        string      `json:"name,omitempty"`
	Image       string      `json:"image,omitempty"`
	Description string      `json:"description,omitempty"`
	ExternalURL string      `json:"external_url,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

// CachedImage is a fetched image: the raw blob plus its decoded form.
type CachedImage struct {
	URL         string
	ContentType string
	Data        []byte
	Image       image.Image
}

// RPCResult holds health check results for a specific RPC URL.
type RPCResult struct {
	URL     string `json:"url"`
	Status  string `json:"status"` // "ok" or "error"
	Version string `json:"version,omitempty"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TestReport holds the results of the configuration test.
type TestReport struct {
	ConfigPath      string      `json:"config_path"`
	ValidStructure  bool        `json:"valid_structure"`
	StructureErrors []string    `json:"structure_errors,omitempty"`
	Cluster         string      `json:"cluster"`
	RPCs            []RPCResult `json:"rpcs,omitempty"`
	HealthyRPCs     int         `json:"healthy_rpcs"`
	ConfigUpdated   bool        `json:"config_updated"`
	SaveError       string      `json:"save_error,omitempty"`
	DryRun          bool        `json:"dry_run"`
}
