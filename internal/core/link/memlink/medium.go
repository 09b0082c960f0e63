// Package memlink 实现进程内模拟无线介质
//
// 同一个 Medium 上的链路共享"空口"：链路发出的帧由其发送 goroutine
// 投递给同信道上地址匹配（广播或精确匹配）的其他已初始化链路，
// 然后向发送方报告发送完成。单播在没有任何接收方接收时报告失败，
// 模拟链路层 ACK 缺失。
package memlink

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-rawlink/internal/core/link/radio"
	"github.com/dep2p/go-rawlink/internal/util/logger"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
)

var log = logger.Logger("link.mem")

// ============================================================================
//                              选项
// ============================================================================

// Float64Source 丢包判定用的随机源
type Float64Source interface {
	Float64() float64
}

// Option 介质选项
type Option func(*Medium)

// WithClock 设置时钟（用于空口时延）
func WithClock(c clock.Clock) Option {
	return func(m *Medium) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLatency 设置每帧空口时延
func WithLatency(d time.Duration) Option {
	return func(m *Medium) {
		if d > 0 {
			m.latency = d
		}
	}
}

// WithLossRate 设置每个接收方独立的丢帧概率 [0,1)
func WithLossRate(p float64) Option {
	return func(m *Medium) {
		if p >= 0 && p < 1 {
			m.loss = p
		}
	}
}

// WithRand 设置丢包随机源
func WithRand(r Float64Source) Option {
	return func(m *Medium) {
		if r != nil {
			m.rng = r
		}
	}
}

// WithMaxPeers 设置每条链路的对端表容量
func WithMaxPeers(n int) Option {
	return func(m *Medium) {
		m.maxPeers = n
	}
}

// ============================================================================
//                              Medium
// ============================================================================

// Medium 模拟介质
type Medium struct {
	mu    sync.RWMutex
	links map[types.MAC]*Link

	clock    clock.Clock
	latency  time.Duration
	loss     float64
	rngMu    sync.Mutex
	rng      Float64Source
	maxPeers int
}

// NewMedium 创建介质
func NewMedium(opts ...Option) *Medium {
	m := &Medium{
		links:    make(map[types.MAC]*Link),
		clock:    clock.New(),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxPeers: radio.DefaultMaxPeers,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach 在介质上创建一条地址为 mac 的链路
func (m *Medium) Attach(mac types.MAC) (*Link, error) {
	if mac.IsSentinel() {
		return nil, fmt.Errorf("%w: %s", radio.ErrInvalidPeer, mac)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[mac]; ok {
		return nil, fmt.Errorf("memlink: address %s already attached", mac)
	}

	l := newLink(m, mac)
	m.links[mac] = l

	log.Debug("链路接入介质", "mac", mac)
	return l, nil
}

// Detach 从介质移除链路（会先 Deinit）
func (m *Medium) Detach(mac types.MAC) error {
	m.mu.Lock()
	l, ok := m.links[mac]
	delete(m.links, mac)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", radio.ErrPeerNotFound, mac)
	}
	return l.Deinit()
}

// Links 已接入的链路数
func (m *Medium) Links() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}

// Close 并发释放所有链路
func (m *Medium) Close() error {
	m.mu.RLock()
	links := make([]*Link, 0, len(m.links))
	for _, l := range m.links {
		links = append(links, l)
	}
	m.mu.RUnlock()

	var g errgroup.Group
	for _, l := range links {
		g.Go(l.Deinit)
	}
	return g.Wait()
}

// deliver 把帧投递给匹配的接收方，返回接收方数量
func (m *Medium) deliver(src *Link, ch uint8, dst types.MAC, data []byte) int {
	m.mu.RLock()
	targets := make([]*Link, 0, len(m.links))
	for mac, l := range m.links {
		if l == src {
			continue
		}
		if !dst.IsBroadcast() && dst != mac {
			continue
		}
		targets = append(targets, l)
	}
	m.mu.RUnlock()

	delivered := 0
	for _, l := range targets {
		if m.lost() {
			log.Debug("模拟丢帧", "src", src.mac, "dst", l.mac)
			continue
		}
		if l.receive(src.mac, dst, ch, data) {
			delivered++
		}
	}
	return delivered
}

func (m *Medium) lost() bool {
	if m.loss <= 0 {
		return false
	}
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Float64() < m.loss
}

// airTime 模拟空口时延
func (m *Medium) airTime() {
	if m.latency > 0 {
		m.clock.Sleep(m.latency)
	}
}

var _ interfaces.Link = (*Link)(nil)
