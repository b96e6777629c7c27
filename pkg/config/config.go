package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"nftokview/pkg/nftoken"
)

const ConfigFileName = ".nftokview.json"

// Config holds application-wide settings.
type Config struct {
	RPCURLs               []string `json:"rpc_urls"`
	Cluster               string   `json:"cluster"`
	Commitment            string   `json:"commitment"`
	ProgramID             string   `json:"program_id"`
	ExplorerURL           string   `json:"explorer_url"`
	IPFSGateway           string   `json:"ipfs_gateway"`
	ArweaveGateway        string   `json:"arweave_gateway"`
	ImageTimeoutMs        int      `json:"image_timeout_ms"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds"`
	MaxImageBytes         int64    `json:"max_image_bytes"`
	CollectionImageSize   int      `json:"collection_image_size"`
	CachePath             string   `json:"cache_path,omitempty"`
	CacheTTLSeconds       int      `json:"cache_ttl_seconds"`
	LogLevel              string   `json:"log_level"`
	LogFile               string   `json:"log_file,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		RPCURLs:               []string{"https://api.mainnet-beta.solana.com"},
		Cluster:               "mainnet-beta",
		Commitment:            "confirmed",
		ProgramID:             nftoken.DefaultProgramID,
		ExplorerURL:           "https://explorer.solana.com",
		IPFSGateway:           "https://ipfs.io/ipfs/",
		ArweaveGateway:        "https://arweave.net/",
		ImageTimeoutMs:        5000,
		RequestTimeoutSeconds: 15,
		MaxImageBytes:         8 << 20,
		CollectionImageSize:   8,
		CacheTTLSeconds:       24 * 60 * 60,
		LogLevel:              "info",
	}
}

// ImageTimeout is the period of the image loading fallback timer.
func (c Config) ImageTimeout() time.Duration {
	return time.Duration(c.ImageTimeoutMs) * time.Millisecond
}

const defaultRequestTimeout = 15 * time.Second

// RequestTimeout bounds a single RPC or HTTP fetch. Non-positive values fall
// back to 15s.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

const defaultCacheTTL = 24 * time.Hour

// CacheTTL is how long fetched image blobs are kept. Non-positive values fall
// back to a day.
func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return defaultCacheTTL
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}

func LoadConfig(r io.Reader) (Config, error) {
	var raw struct {
		RPCURL                string   `json:"rpc_url"` // Legacy
		RPCURLs               []string `json:"rpc_urls"`
		Cluster               *string  `json:"cluster"`
		Commitment            *string  `json:"commitment"`
		ProgramID             *string  `json:"program_id"`
		ExplorerURL           *string  `json:"explorer_url"`
		IPFSGateway           *string  `json:"ipfs_gateway"`
		ArweaveGateway        *string  `json:"arweave_gateway"`
		ImageTimeoutMs        *int     `json:"image_timeout_ms"`
		RequestTimeoutSeconds *int     `json:"request_timeout_seconds"`
		MaxImageBytes         *int64   `json:"max_image_bytes"`
		CollectionImageSize   *int     `json:"collection_image_size"`
		CachePath             string   `json:"cache_path"`
		CacheTTLSeconds       *int     `json:"cache_ttl_seconds"`
		LogLevel              *string  `json:"log_level"`
		LogFile               string   `json:"log_file"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Config{}, err
	}

	cfg := Default()

	// Migration for legacy single-endpoint config
	if len(raw.RPCURLs) == 0 && raw.RPCURL != "" {
		raw.RPCURLs = []string{raw.RPCURL}
	}
	if len(raw.RPCURLs) > 0 {
		cfg.RPCURLs = raw.RPCURLs
	}

	setString(&cfg.Cluster, raw.Cluster)
	setString(&cfg.Commitment, raw.Commitment)
	setString(&cfg.ProgramID, raw.ProgramID)
	setString(&cfg.ExplorerURL, raw.ExplorerURL)
	setString(&cfg.IPFSGateway, raw.IPFSGateway)
	setString(&cfg.ArweaveGateway, raw.ArweaveGateway)
	setString(&cfg.LogLevel, raw.LogLevel)
	if raw.ImageTimeoutMs != nil {
		cfg.ImageTimeoutMs = *raw.ImageTimeoutMs
	}
	if raw.RequestTimeoutSeconds != nil {
		cfg.RequestTimeoutSeconds = *raw.RequestTimeoutSeconds
	}
	if raw.MaxImageBytes != nil {
		cfg.MaxImageBytes = *raw.MaxImageBytes
	}
	if raw.CollectionImageSize != nil {
		cfg.CollectionImageSize = *raw.CollectionImageSize
	}
	if raw.CacheTTLSeconds != nil {
		cfg.CacheTTLSeconds = *raw.CacheTTLSeconds
	}
	cfg.CachePath = raw.CachePath
	cfg.LogFile = raw.LogFile

	return cfg, nil
}

// HasLegacyFields reports whether a raw config file still uses the single
// rpc_url key.
func HasLegacyFields(data []byte) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return false
	}
	_, ok := raw["rpc_url"]
	return ok
}

func setString(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = *v
	}
}

// Validate reports structural problems that would prevent the explorer from running.
func Validate(cfg Config) []string {
	var problems []string
	if len(cfg.RPCURLs) == 0 {
		problems = append(problems, "configuration must have at least one RPC URL")
	}
	for i, u := range cfg.RPCURLs {
		if strings.TrimSpace(u) == "" {
			problems = append(problems, fmt.Sprintf("RPC URL at index %d is empty", i))
		}
	}
	if cfg.ImageTimeoutMs <= 0 {
		problems = append(problems, "image_timeout_ms must be positive")
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		problems = append(problems, "request_timeout_seconds must be positive")
	}
	if cfg.CollectionImageSize < 2 {
		problems = append(problems, "collection_image_size must be at least 2")
	}
	return problems
}

func SaveConfig(cfg Config, path string) error {
	if problems := Validate(cfg); len(problems) > 0 {
		return fmt.Errorf("validation failed: %s", problems[0])
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded configuration is empty")
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func RestoreLastBackup(configPath string) error {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}
