package facade

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dreamware/membroker/internal/broker"
	"github.com/dreamware/membroker/internal/config"
	"github.com/dreamware/membroker/internal/meta"
)

// Server binds a broker.MetaStore to the HTTP route table described in the
// repository's expanded specification.
type Server struct {
	store    *broker.MetaStore
	cfg      config.Config
	log      zerolog.Logger
	metrics  *metricSet
	watchdog *Watchdog
}

// NewServer constructs a facade Server. If cfg.WatchdogEnabled is set, a
// Watchdog is created (but not started — call Start/Stop explicitly,
// typically from cmd/membroker's main).
func NewServer(store *broker.MetaStore, cfg config.Config, log zerolog.Logger) *Server {
	s := &Server{
		store:   store,
		cfg:     cfg,
		log:     log,
		metrics: newMetricSet(),
	}
	if cfg.WatchdogEnabled {
		s.watchdog = NewWatchdog(store, cfg.WatchdogInterval, log.With().Str("component", "watchdog").Logger())
	}
	return s
}

// Watchdog returns the facade's configured watchdog, or nil if disabled.
func (s *Server) Watchdog() *Watchdog { return s.watchdog }

// Routes builds the HTTP handler implementing the route table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /epoch", s.handleGetEpoch)
	mux.HandleFunc("GET /proxies", s.handleGetProxies)
	mux.HandleFunc("POST /proxies", s.handleAddProxy)
	mux.HandleFunc("GET /proxies/{addr}", s.handleGetProxyByAddress)
	mux.HandleFunc("DELETE /proxies/{addr}", s.handleRemoveProxy)
	mux.HandleFunc("POST /proxies/{addr}/replace", s.handleReplaceFailedProxy)
	mux.HandleFunc("GET /clusters", s.handleGetClusterNames)
	mux.HandleFunc("POST /clusters", s.handleAddCluster)
	mux.HandleFunc("GET /clusters/{name}", s.handleGetClusterByName)
	mux.HandleFunc("DELETE /clusters/{name}", s.handleRemoveCluster)
	mux.HandleFunc("POST /clusters/{name}/nodes", s.handleAutoAddNodes)
	mux.HandleFunc("POST /clusters/{name}/migrations", s.handleMigrateSlots)
	mux.HandleFunc("POST /clusters/{name}/migrations/commit", s.handleCommitMigration)
	mux.HandleFunc("POST /failures", s.handleAddFailure)
	mux.HandleFunc("GET /failures", s.handleGetFailures)
	mux.HandleFunc("GET /debug/snapshot", s.handleSnapshot)
	mux.Handle("GET /metrics", s.metrics.handler())
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusForError(err)
	s.log.Error().Err(errors.Wrap(err, op)).Int("status", status).Msg("request failed")
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleGetEpoch(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]uint64{"global_epoch": s.store.GetGlobalEpoch()})
}

func (s *Server) handleGetProxies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetProxies())
}

type addProxyRequest struct {
	Address meta.ProxyAddress                     `json:"address"`
	Nodes   [meta.NodesPerProxy]meta.NodeAddress  `json:"nodes"`
}

func (s *Server) handleAddProxy(w http.ResponseWriter, r *http.Request) {
	var req addProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "add_proxy", broker.ErrInvalidProxyAddress)
		return
	}
	if err := s.store.AddProxy(req.Address, req.Nodes); err != nil {
		s.writeError(w, "add_proxy", err)
		return
	}
	s.metrics.refresh(s.store)
	s.writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleGetProxyByAddress(w http.ResponseWriter, r *http.Request) {
	addr := meta.ProxyAddress(r.PathValue("addr"))
	view, ok := s.store.GetProxyByAddress(addr)
	if !ok {
		s.writeError(w, "get_proxy_by_address", broker.ErrHostNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRemoveProxy(w http.ResponseWriter, r *http.Request) {
	addr := meta.ProxyAddress(r.PathValue("addr"))
	if err := s.store.RemoveProxy(addr); err != nil {
		s.writeError(w, "remove_proxy", err)
		return
	}
	s.metrics.refresh(s.store)
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleReplaceFailedProxy(w http.ResponseWriter, r *http.Request) {
	addr := meta.ProxyAddress(r.PathValue("addr"))
	view, err := s.store.ReplaceFailedProxy(addr)
	if err != nil {
		if stderrors.Is(err, broker.ErrNotInUse) {
			s.writeJSON(w, http.StatusOK, map[string]string{"status": "not_in_use"})
			return
		}
		s.writeError(w, "replace_failed_proxy", err)
		return
	}
	s.metrics.refresh(s.store)
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetClusterNames(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetClusterNames())
}

type addClusterRequest struct {
	Name    meta.ClusterName `json:"name"`
	NodeNum int              `json:"node_num"`
}

func (s *Server) handleAddCluster(w http.ResponseWriter, r *http.Request) {
	var req addClusterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "add_cluster", broker.ErrInvalidClusterName)
		return
	}
	if err := s.store.AddCluster(req.Name, req.NodeNum); err != nil {
		s.writeError(w, "add_cluster", err)
		return
	}
	s.metrics.refresh(s.store)
	s.writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleGetClusterByName(w http.ResponseWriter, r *http.Request) {
	name := meta.ClusterName(r.PathValue("name"))
	view, err := s.store.GetClusterByName(name)
	if err != nil {
		s.writeError(w, "get_cluster_by_name", err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRemoveCluster(w http.ResponseWriter, r *http.Request) {
	name := meta.ClusterName(r.PathValue("name"))
	if err := s.store.RemoveCluster(name); err != nil {
		s.writeError(w, "remove_cluster", err)
		return
	}
	s.metrics.refresh(s.store)
	s.writeJSON(w, http.StatusNoContent, nil)
}

type autoAddNodesRequest struct {
	Num int `json:"num"`
}

func (s *Server) handleAutoAddNodes(w http.ResponseWriter, r *http.Request) {
	name := meta.ClusterName(r.PathValue("name"))
	var req autoAddNodesRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, "auto_add_nodes", broker.ErrInvalidNodeNum)
			return
		}
	}
	nodes, err := s.store.AutoAddNodes(name, req.Num)
	if err != nil {
		s.writeError(w, "auto_add_nodes", err)
		return
	}
	s.metrics.refresh(s.store)
	s.writeJSON(w, http.StatusCreated, nodes)
}

func (s *Server) handleMigrateSlots(w http.ResponseWriter, r *http.Request) {
	name := meta.ClusterName(r.PathValue("name"))
	plans, err := s.store.MigrateSlots(name)
	if err != nil {
		s.writeError(w, "migrate_slots", err)
		return
	}
	s.metrics.refresh(s.store)
	s.writeJSON(w, http.StatusCreated, plans)
}

type commitMigrationRequest struct {
	Ranges meta.RangeList `json:"ranges"`
	Epoch  uint64         `json:"epoch"`
}

func (s *Server) handleCommitMigration(w http.ResponseWriter, r *http.Request) {
	name := meta.ClusterName(r.PathValue("name"))
	var req commitMigrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "commit_migration", broker.ErrInvalidMigrationTask)
		return
	}
	canonical, err := s.store.CommitMigration(broker.MigrationTask{
		ClusterName: name,
		Ranges:      req.Ranges,
		Epoch:       req.Epoch,
	})
	if err != nil {
		s.writeError(w, "commit_migration", err)
		return
	}
	s.metrics.refresh(s.store)
	s.writeJSON(w, http.StatusOK, canonical)
}

type addFailureRequest struct {
	Address    meta.ProxyAddress `json:"address"`
	ReporterID string            `json:"reporter_id"`
}

func (s *Server) handleAddFailure(w http.ResponseWriter, r *http.Request) {
	var req addFailureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "add_failure", broker.ErrInvalidProxyAddress)
		return
	}
	if err := s.store.AddFailure(req.Address, req.ReporterID); err != nil {
		s.writeError(w, "add_failure", err)
		return
	}
	s.metrics.refresh(s.store)
	s.writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleGetFailures(w http.ResponseWriter, r *http.Request) {
	ttl := s.cfg.FailureTTL
	quorum := s.cfg.FailureQuorum
	if v := r.URL.Query().Get("ttl_seconds"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			ttl = time.Duration(n) * time.Second
		}
	}
	if v := r.URL.Query().Get("quorum"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			quorum = n
		}
	}
	s.writeJSON(w, http.StatusOK, s.store.GetFailures(ttl, quorum))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ExportSnapshot())
}
