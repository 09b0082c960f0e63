package introspect

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/lib/log"
	"github.com/dep2p/go-rawlink/pkg/types"
)

var logger = log.Logger("debug/introspect")

// DefaultAddr 默认监听地址
const DefaultAddr = "127.0.0.1:9476"

// ============================================================================
//                              配置
// ============================================================================

// Config 服务配置
type Config struct {
	// Addr 监听地址
	Addr string

	// Link 可选的本地链路
	Link interfaces.Link

	// Rendezvous 可选的汇合引擎
	Rendezvous interfaces.Rendezvous

	// ConnTable 可选的连接表
	ConnTable interfaces.ConnTable

	// Gatherer 可选的指标来源，为空时不注册 /metrics
	Gatherer prometheus.Gatherer

	// CustomHandlers 自定义处理器
	CustomHandlers map[string]http.HandlerFunc
}

// ============================================================================
//                              Server
// ============================================================================

// Server 本地自省 HTTP 服务
type Server struct {
	config Config

	server   *http.Server
	listener net.Listener

	running   bool
	startTime time.Time

	mu sync.Mutex
}

// New 创建自省服务
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{config: cfg}
}

// Start 启动服务
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/debug/introspect", s.handleIntrospect)
	mux.HandleFunc("/debug/introspect/rendezvous", s.handleRendezvous)
	mux.HandleFunc("/debug/introspect/peers", s.handlePeers)
	mux.HandleFunc("/debug/introspect/conntable", s.handleConnTable)
	mux.HandleFunc("/debug/introspect/runtime", s.handleRuntime)

	if s.config.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.HandleFunc("/health", s.handleHealth)

	for path, handler := range s.config.CustomHandlers {
		mux.HandleFunc(path, handler)
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("自省服务异常退出", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	logger.Info("自省服务已启动", "addr", listener.Addr().String())
	return nil
}

// Stop 停止服务
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Error("关闭自省服务失败", "error", err)
		return err
	}

	s.running = false
	logger.Info("自省服务已停止")
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// ============================================================================
//                              响应结构
// ============================================================================

// IntrospectResponse 完整诊断响应
type IntrospectResponse struct {
	Timestamp  time.Time       `json:"timestamp"`
	Uptime     string          `json:"uptime"`
	LocalMAC   string          `json:"local_mac,omitempty"`
	Rendezvous *RendezvousInfo `json:"rendezvous,omitempty"`
	Peers      []PeerInfo      `json:"peers,omitempty"`
	ConnTable  *ConnTableInfo  `json:"conn_table,omitempty"`
	Runtime    *RuntimeInfo    `json:"runtime,omitempty"`
}

// RendezvousInfo 汇合引擎状态
type RendezvousInfo struct {
	RunID           string `json:"run_id,omitempty"`
	State           string `json:"state"`
	Magic           uint32 `json:"magic"`
	Dest            string `json:"dest"`
	BroadcastActive bool   `json:"broadcast_active"`
	UnicastActive   bool   `json:"unicast_active"`
	Remaining       int    `json:"remaining"`
	BroadcastSeq    uint16 `json:"broadcast_seq"`
	UnicastSeq      uint16 `json:"unicast_seq"`
}

// PeerInfo 对端观察记录
type PeerInfo struct {
	MAC      string    `json:"mac"`
	Kind     string    `json:"kind"`
	Seq      uint16    `json:"seq"`
	Magic    uint32    `json:"magic"`
	State    uint8     `json:"state"`
	Frames   int       `json:"frames"`
	LastSeen time.Time `json:"last_seen"`
}

// ConnTableInfo 连接表信息
type ConnTableInfo struct {
	Len     int         `json:"len"`
	Cap     int         `json:"cap"`
	Entries []ConnEntry `json:"entries"`
}

// ConnEntry 连接表条目
type ConnEntry struct {
	Handle  int    `json:"handle"`
	Addr    string `json:"addr"`
	ConnID  uint16 `json:"conn_id"`
	Bound   bool   `json:"bound"`
	DataLen int    `json:"data_len"`
}

// RuntimeInfo 运行时信息
type RuntimeInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc"`
	MemSys       uint64 `json:"mem_sys"`
	NumGC        uint32 `json:"num_gc"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ============================================================================
//                              HTTP 处理器
// ============================================================================

func (s *Server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := IntrospectResponse{
		Timestamp:  time.Now(),
		Uptime:     time.Since(s.startTime).String(),
		Rendezvous: s.collectRendezvousInfo(),
		Peers:      s.collectPeers(),
		ConnTable:  s.collectConnTableInfo(),
		Runtime:    s.collectRuntimeInfo(),
	}
	if s.config.Link != nil {
		response.LocalMAC = s.config.Link.LocalMAC().String()
	}

	s.writeJSON(w, response)
}

func (s *Server) handleRendezvous(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info := s.collectRendezvousInfo()
	if info == nil {
		http.Error(w, "Rendezvous not available", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, info)
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.config.Rendezvous == nil {
		http.Error(w, "Peer info not available", http.StatusServiceUnavailable)
		return
	}
	peers := s.collectPeers()
	if peers == nil {
		peers = []PeerInfo{}
	}
	s.writeJSON(w, peers)
}

func (s *Server) handleConnTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info := s.collectConnTableInfo()
	if info == nil {
		http.Error(w, "Conn table not available", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, info)
}

func (s *Server) handleRuntime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.collectRuntimeInfo())
}

// handleHealth 没有汇合引擎时报告 degraded
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
	}
	if s.config.Rendezvous == nil {
		health.Status = "degraded"
	}

	s.writeJSON(w, health)
}

// ============================================================================
//                              数据收集
// ============================================================================

func (s *Server) collectRendezvousInfo() *RendezvousInfo {
	if s.config.Rendezvous == nil {
		return nil
	}
	st := s.config.Rendezvous.Status()
	return &RendezvousInfo{
		RunID:           st.RunID,
		State:           st.State.String(),
		Magic:           st.Magic,
		Dest:            st.Dest.String(),
		BroadcastActive: st.BroadcastActive,
		UnicastActive:   st.UnicastActive,
		Remaining:       st.Remaining,
		BroadcastSeq:    st.BroadcastSeq,
		UnicastSeq:      st.UnicastSeq,
	}
}

func (s *Server) collectPeers() []PeerInfo {
	if s.config.Rendezvous == nil {
		return nil
	}
	sightings := s.config.Rendezvous.Sightings()
	peers := make([]PeerInfo, 0, len(sightings))
	for _, ps := range sightings {
		peers = append(peers, PeerInfo{
			MAC:      ps.MAC.String(),
			Kind:     ps.Kind.String(),
			Seq:      ps.Seq,
			Magic:    ps.Magic,
			State:    ps.State,
			Frames:   ps.Frames,
			LastSeen: ps.LastSeen,
		})
	}
	return peers
}

func (s *Server) collectConnTableInfo() *ConnTableInfo {
	t := s.config.ConnTable
	if t == nil {
		return nil
	}
	info := &ConnTableInfo{
		Len:     t.Len(),
		Cap:     t.Cap(),
		Entries: make([]ConnEntry, 0, t.Len()),
	}
	t.ForEach(func(e types.ConnEntry) {
		info.Entries = append(info.Entries, ConnEntry{
			Handle:  int(e.Handle),
			Addr:    e.Addr.String(),
			ConnID:  e.ConnID,
			Bound:   e.HasConnID,
			DataLen: len(e.Data),
		})
	})
	return info
}

func (s *Server) collectRuntimeInfo() *RuntimeInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &RuntimeInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

// ============================================================================
//                              辅助方法
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		logger.Error("JSON 编码失败", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
