package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/nftoken"
	"nftokview/pkg/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	nftKey       = "DSMc9j3dTTqqk4ZUSNU2TbqxsZWr4ZjkveR9XD4SYXPu"
	holderKey    = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	authorityKey = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

// newSolanaServer answers getHealth, getVersion and getAccountInfo for nftKey.
func newSolanaServer(t *testing.T) *httptest.Server {
	t.Helper()
	data, err := nftoken.EncodeNFT(models.NFT{Holder: holderKey, Authority: authorityKey})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var result interface{}
		switch req.Method {
		case "getHealth":
			result = "ok"
		case "getVersion":
			result = map[string]interface{}{"solana-core": "1.18.22"}
		case "getAccountInfo":
			var address string
			if len(req.Params) > 0 {
				_ = json.Unmarshal(req.Params[0], &address)
			}
			var value interface{}
			if address == nftKey {
				value = map[string]interface{}{
					"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
					"executable": false,
					"lamports":   2039280,
					"owner":      nftoken.DefaultProgramID,
					"space":      len(data),
				}
			}
			result = map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": value}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(config.CloseLogFile)
	cmd := newRootCmd("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "nftokview version 1.2.3\n", out)
}

func TestRootRejectsInvalidAddress(t *testing.T) {
	path := writeConfig(t, `{}`)
	_, err := run(t, "--config", path, "not-an-address")
	assert.ErrorContains(t, err, "invalid address")
}

func TestShowCmd_JSON(t *testing.T) {
	srv := newSolanaServer(t)
	path := writeConfig(t, `{"rpc_urls": ["`+srv.URL+`"]}`)

	out, err := run(t, "--config", path, "show", nftKey, "--json")
	require.NoError(t, err)

	var status server.AccountStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "nft", status.Kind)
	require.NotNil(t, status.NFT)
	assert.Equal(t, holderKey, status.NFT.Holder)
}

func TestShowCmd_Text(t *testing.T) {
	srv := newSolanaServer(t)
	path := writeConfig(t, `{"rpc_urls": ["`+srv.URL+`"]}`)

	out, err := run(t, "--config", path, "show", nftKey)
	require.NoError(t, err)
	assert.Contains(t, out, "Overview")
	assert.Contains(t, out, "Not Delegated")
	assert.Contains(t, out, "No Collection")
	assert.Contains(t, out, fmt.Sprintf("%-14s%s\n", "Name", "-"))
	assert.NotContains(t, out, "Loading")
}

func TestShowCmd_ZeroRequestTimeoutUsesDefault(t *testing.T) {
	srv := newSolanaServer(t)
	path := writeConfig(t, `{"rpc_urls": ["`+srv.URL+`"], "request_timeout_seconds": 0}`)

	out, err := run(t, "--config", path, "show", nftKey)
	require.NoError(t, err)
	assert.Contains(t, out, "Overview")
}

func TestShowCmd_NotFound(t *testing.T) {
	srv := newSolanaServer(t)
	path := writeConfig(t, `{"rpc_urls": ["`+srv.URL+`"]}`)

	out, err := run(t, "--config", path, "show", holderKey)
	require.NoError(t, err)
	assert.Contains(t, out, "Account not found")
}

func TestConfigTest_MigratesLegacy(t *testing.T) {
	srv := newSolanaServer(t)
	path := writeConfig(t, `{"rpc_url": "`+srv.URL+`"}`)

	out, err := run(t, "--config", path, "config", "test", "--json")
	require.NoError(t, err)

	var report models.TestReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.ValidStructure)
	assert.Equal(t, 1, report.HealthyRPCs)
	assert.True(t, report.ConfigUpdated)
	require.Len(t, report.RPCs, 1)
	assert.Equal(t, "1.18.22", report.RPCs[0].Version)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, config.HasLegacyFields(raw))
	assert.Contains(t, string(raw), srv.URL)
}

func TestConfigTest_DryRun(t *testing.T) {
	srv := newSolanaServer(t)
	legacy := `{"rpc_url": "` + srv.URL + `"}`
	path := writeConfig(t, legacy)

	out, err := run(t, "--config", path, "config", "test", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run enabled")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, legacy, string(raw))
}

func TestConfigTest_Invalid(t *testing.T) {
	path := writeConfig(t, `{"image_timeout_ms": -1}`)
	out, err := run(t, "--config", path, "config", "test")
	assert.ErrorIs(t, err, errConfigInvalid)
	assert.Contains(t, out, "image_timeout_ms must be positive")
}

func TestConfigInitAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := run(t, "--config", path, "config", "restore")
	assert.Error(t, err)

	_, err = run(t, "--config", path, "config", "init")
	require.NoError(t, err)
	_, err = run(t, "--config", path, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)
	_, err = run(t, "--config", path, "config", "restore")
	require.NoError(t, err)

	cfg, err := config.LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().RPCURLs, cfg.RPCURLs)
}
