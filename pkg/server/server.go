package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nftokview/pkg/config"
	"nftokview/pkg/models"
	"nftokview/pkg/nftoken"
	"nftokview/pkg/utils"
	"nftokview/pkg/watcher"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// AccountStatus is the JSON view of one classified account.
type AccountStatus struct {
	Address    string             `json:"address"`
	Status     string             `json:"status"` // loading, not_found or ready
	Kind       string             `json:"kind,omitempty"`
	Account    *models.Account    `json:"account,omitempty"`
	NFT        *models.NFT        `json:"nft,omitempty"`
	Collection *models.Collection `json:"collection,omitempty"`
	Metadata   *models.Metadata   `json:"metadata,omitempty"`
	NftCount   *int               `json:"nft_count,omitempty"`
}

type Server struct {
	watcher *watcher.Watcher
	config  config.Config
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	mux     *http.ServeMux
	http    *http.Server
	log     zerolog.Logger
}

func NewServer(w *watcher.Watcher, cfg config.Config) *Server {
	s := &Server{
		watcher: w,
		config:  cfg,
		clients: make(map[*websocket.Conn]bool),
		mux:     http.NewServeMux(),
		log:     config.Logger.With().Str("component", "server").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/account/{address}", s.handleAccount)
	s.mux.HandleFunc("/ws", s.handleWS)
}

// Start serves the API until Shutdown is called.
func (s *Server) Start(port int) error {
	go s.listenToWatcher(s.watcher.Subscribe())

	s.mu.Lock()
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.http
	s.mu.Unlock()

	s.log.Info().Int("port", port).Msg("API server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown stops the listener and closes every WebSocket client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	for client := range s.clients {
		_ = client.Close()
		delete(s.clients, client)
	}
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if !utils.IsValidAddress(address) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid address"})
		return
	}

	status := s.accountStatus(address)
	code := http.StatusOK
	switch status.Status {
	case "loading":
		code = http.StatusAccepted
	case "not_found":
		code = http.StatusNotFound
	}
	writeJSON(w, code, status)
}

// accountStatus classifies address from the service lookups, starting fetches
// for whatever is not resolved yet.
func (s *Server) accountStatus(address string) AccountStatus {
	res := AccountStatus{Address: address}

	acc, ok := s.watcher.Account(address)
	if !ok {
		s.watcher.FetchAccount(address)
		res.Status = "loading"
		return res
	}
	if acc == nil {
		res.Status = "not_found"
		return res
	}

	res.Status = "ready"
	res.Account = acc
	kind := nftoken.Classify(acc, s.config.ProgramID)
	res.Kind = kind.String()

	switch kind {
	case nftoken.KindNFT:
		res.NFT = nftoken.ParseNFT(acc, s.config.ProgramID)
		res.Metadata = s.metadata(res.NFT.MetadataURL)
	case nftoken.KindCollection:
		res.Collection = nftoken.ParseCollection(acc, s.config.ProgramID)
		res.Metadata = s.metadata(res.Collection.MetadataURL)
		if nfts, ok := s.watcher.CollectionNfts(address); ok {
			n := len(nfts)
			res.NftCount = &n
		} else {
			s.watcher.FetchCollectionNfts(address)
		}
	}
	return res
}

func (s *Server) metadata(url string) *models.Metadata {
	if url == "" {
		return nil
	}
	md, ok := s.watcher.Metadata(url)
	if !ok {
		s.watcher.FetchMetadata(url)
	}
	return md
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	s.mu.Lock()
	s.clients[conn] = true
	// Send initial state
	initialData := map[string]interface{}{
		"type": "initial",
		"data": map[string]interface{}{
			"cluster":    s.config.Cluster,
			"program_id": programID(s.config),
		},
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(initialData)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func programID(cfg config.Config) string {
	if cfg.ProgramID != "" {
		return cfg.ProgramID
	}
	return nftoken.DefaultProgramID
}

func (s *Server) listenToWatcher(sub watcher.Subscriber) {
	defer s.watcher.Unsubscribe(sub)

	for event := range sub {
		s.broadcast(event)
	}
}

func (s *Server) broadcast(event watcher.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteJSON(event); err != nil {
			s.log.Debug().Err(err).Msg("dropping websocket client")
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}
