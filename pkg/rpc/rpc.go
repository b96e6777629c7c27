package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/nftoken"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/mr-tron/base58"
	_ "golang.org/x/image/webp"
)

// ErrAllRPCsFailed is returned when no configured endpoint answered.
var ErrAllRPCsFailed = errors.New("all RPC endpoints failed")

// Client talks to Solana JSON-RPC endpoints and fetches off-chain metadata.
type Client struct {
	rpcURLs        []string
	commitment     string
	programID      string
	ipfsGateway    string
	arweaveGateway string
	maxImageBytes  int64
	httpClient     *http.Client
}

// NewClient builds a Client from the application config.
func NewClient(cfg config.Config) *Client {
	return &Client{
		rpcURLs:        cfg.RPCURLs,
		commitment:     cfg.Commitment,
		programID:      cfg.ProgramID,
		ipfsGateway:    cfg.IPFSGateway,
		arweaveGateway: cfg.ArweaveGateway,
		maxImageBytes:  cfg.MaxImageBytes,
		httpClient:     &http.Client{Timeout: cfg.RequestTimeout()},
	}
}

type encodedAccount struct {
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Space      uint64   `json:"space"`
}

func (e encodedAccount) toModel(address string, slot uint64) (*models.Account, error) {
	var data []byte
	if len(e.Data) > 0 {
		if len(e.Data) > 1 && e.Data[1] != "base64" {
			return nil, fmt.Errorf("unexpected account encoding %q", e.Data[1])
		}
		var err error
		data, err = base64.StdEncoding.DecodeString(e.Data[0])
		if err != nil {
			return nil, fmt.Errorf("decode account data: %w", err)
		}
	}
	return &models.Account{
		Address:    address,
		Owner:      e.Owner,
		Lamports:   e.Lamports,
		Executable: e.Executable,
		Space:      e.Space,
		Data:       data,
		Slot:       slot,
		FetchedAt:  time.Now(),
	}, nil
}

// call tries each RPC URL in order until one answers.
func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	var lastErr error
	for _, rpcURL := range c.rpcURLs {
		client, err := gethrpc.DialContext(ctx, rpcURL)
		if err != nil {
			lastErr = err
			continue
		}
		err = client.CallContext(ctx, result, method, args...)
		client.Close()
		if err != nil {
			config.Logger.Debug().Str("component", "rpc").Str("rpc", rpcURL).Str("method", method).Err(err).Msg("rpc call failed")
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return nil
	}
	if lastErr == nil {
		return ErrAllRPCsFailed
	}
	return fmt.Errorf("%w: %s: %v", ErrAllRPCsFailed, method, lastErr)
}

// FetchAccountInfo returns the account at address, or nil if it does not exist.
func (c *Client) FetchAccountInfo(ctx context.Context, address string) (*models.Account, error) {
	var res struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value *encodedAccount `json:"value"`
	}
	opts := map[string]interface{}{"encoding": "base64"}
	if c.commitment != "" {
		opts["commitment"] = c.commitment
	}
	if err := c.call(ctx, &res, "getAccountInfo", address, opts); err != nil {
		return nil, err
	}
	if res.Value == nil {
		return nil, nil
	}
	return res.Value.toModel(address, res.Context.Slot)
}

// MemcmpFilter matches accounts whose data at Offset equals Bytes.
type MemcmpFilter struct {
	Offset int
	Bytes  []byte
}

// FetchProgramAccounts lists accounts owned by programID that match every filter.
func (c *Client) FetchProgramAccounts(ctx context.Context, programID string, filters []MemcmpFilter) ([]*models.Account, error) {
	var res []struct {
		Pubkey  string         `json:"pubkey"`
		Account encodedAccount `json:"account"`
	}
	rpcFilters := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		rpcFilters = append(rpcFilters, map[string]interface{}{
			"memcmp": map[string]interface{}{
				"offset": f.Offset,
				"bytes":  base58.Encode(f.Bytes),
			},
		})
	}
	opts := map[string]interface{}{"encoding": "base64", "filters": rpcFilters}
	if c.commitment != "" {
		opts["commitment"] = c.commitment
	}
	if err := c.call(ctx, &res, "getProgramAccounts", programID, opts); err != nil {
		return nil, err
	}

	accounts := make([]*models.Account, 0, len(res))
	for _, r := range res {
		acc, err := r.Account.toModel(r.Pubkey, 0)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// FetchCollectionNfts returns every NFT whose collection is collection.
func (c *Client) FetchCollectionNfts(ctx context.Context, collection string) ([]models.NFT, error) {
	key, err := base58.Decode(collection)
	if err != nil {
		return nil, fmt.Errorf("invalid collection address %q: %w", collection, err)
	}
	programID := c.programID
	if programID == "" {
		programID = nftoken.DefaultProgramID
	}
	accounts, err := c.FetchProgramAccounts(ctx, programID, []MemcmpFilter{
		{Offset: 0, Bytes: nftoken.NftDiscriminator()},
		{Offset: nftoken.NftCollectionOffset, Bytes: key},
	})
	if err != nil {
		return nil, err
	}

	nfts := make([]models.NFT, 0, len(accounts))
	for _, acc := range accounts {
		if nft := nftoken.ParseNFT(acc, programID); nft != nil {
			nfts = append(nfts, *nft)
		}
	}
	return nfts, nil
}

// ResolveURL rewrites ipfs:// and ar:// URLs to their HTTP gateways.
func (c *Client) ResolveURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "ipfs://") && c.ipfsGateway != "":
		path := strings.TrimPrefix(strings.TrimPrefix(raw, "ipfs://"), "ipfs/")
		return strings.TrimRight(c.ipfsGateway, "/") + "/" + path
	case strings.HasPrefix(raw, "ar://") && c.arweaveGateway != "":
		return strings.TrimRight(c.arweaveGateway, "/") + "/" + strings.TrimPrefix(raw, "ar://")
	}
	return raw
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ResolveURL(url), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp, nil
}

// FetchMetadata downloads and decodes the off-chain metadata JSON at url.
func (c *Client) FetchMetadata(ctx context.Context, url string) (*models.Metadata, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var md models.Metadata
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", url, err)
	}
	return &md, nil
}

// FetchImage downloads the image at url.
func (c *Client) FetchImage(ctx context.Context, url string) (*models.CachedImage, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	limit := c.maxImageBytes
	if limit <= 0 {
		limit = 8 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", url, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image %s exceeds %d bytes", url, limit)
	}
	return DecodeImage(url, resp.Header.Get("Content-Type"), data)
}

// DecodeImage decodes a cached blob back into a CachedImage.
func DecodeImage(url, contentType string, data []byte) (*models.CachedImage, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", url, err)
	}
	if contentType == "" {
		contentType = "image/" + format
	}
	return &models.CachedImage{URL: url, ContentType: contentType, Data: data, Image: img}, nil
}

// CheckRPC pings a single endpoint with getHealth and getVersion.
func CheckRPC(ctx context.Context, rpcURL string) models.RPCResult {
	res := models.RPCResult{URL: rpcURL}
	start := time.Now()

	client, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
		return res
	}
	defer client.Close()

	var health string
	if err := client.CallContext(ctx, &health, "getHealth"); err != nil {
		res.Status = "error"
		res.Error = fmt.Sprintf("getHealth: %v", err)
		return res
	}
	var version struct {
		SolanaCore string `json:"solana-core"`
	}
	if err := client.CallContext(ctx, &version, "getVersion"); err != nil {
		res.Status = "error"
		res.Error = fmt.Sprintf("getVersion: %v", err)
		return res
	}
	res.Status = "ok"
	res.Version = version.SolanaCore
	res.Latency = time.Since(start).Round(time.Millisecond).String()
	return res
}
