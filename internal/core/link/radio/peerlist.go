package radio

import (
	"fmt"
	"sync"

	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
)

// 信道范围
const (
	MinChannel = 1
	MaxChannel = 14

	// MaxFrameSize 单帧上限
	MaxFrameSize = 250

	// DefaultMaxPeers 默认对端表容量
	DefaultMaxPeers = 20
)

// ValidateChannel 校验信道
func ValidateChannel(ch uint8) error {
	if ch < MinChannel || ch > MaxChannel {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	return nil
}

// ============================================================================
//                              PeerList
// ============================================================================

// PeerList 链路对端表
//
// 广播地址可以作为对端登记（广播发送同样要求目的地址已登记），
// 全 0 地址被拒绝。
type PeerList struct {
	mu    sync.RWMutex
	max   int
	peers map[types.MAC]interfaces.PeerInfo
}

// NewPeerList 创建容量为 max 的对端表，max <= 0 时使用默认值
func NewPeerList(max int) *PeerList {
	if max <= 0 {
		max = DefaultMaxPeers
	}
	return &PeerList{
		max:   max,
		peers: make(map[types.MAC]interfaces.PeerInfo, max),
	}
}

// Add 添加对端，已存在时更新属性
func (l *PeerList) Add(p interfaces.PeerInfo) error {
	if p.MAC.IsZero() {
		return ErrInvalidPeer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.peers[p.MAC]; !ok && len(l.peers) >= l.max {
		return fmt.Errorf("%w: %d", ErrPeerListFull, l.max)
	}
	l.peers[p.MAC] = p
	return nil
}

// Remove 移除对端
func (l *PeerList) Remove(mac types.MAC) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.peers[mac]; !ok {
		return fmt.Errorf("%w: %s", ErrPeerNotFound, mac)
	}
	delete(l.peers, mac)
	return nil
}

// Exists 对端是否存在
func (l *PeerList) Exists(mac types.MAC) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.peers[mac]
	return ok
}

// Get 获取对端记录
func (l *PeerList) Get(mac types.MAC) (interfaces.PeerInfo, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.peers[mac]
	return p, ok
}

// Len 对端数量
func (l *PeerList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.peers)
}

// Reset 清空对端表
func (l *PeerList) Reset() {
	l.mu.Lock()
	l.peers = make(map[types.MAC]interfaces.PeerInfo, l.max)
	l.mu.Unlock()
}

// ============================================================================
//                              Callbacks
// ============================================================================

// Callbacks 链路回调登记
//
// 注册与调用可以并发发生；调用时读取当前登记的回调。
type Callbacks struct {
	mu   sync.RWMutex
	send interfaces.SendCallback
	recv interfaces.RecvCallback
}

// SetSend 登记发送完成回调，nil 表示注销
func (c *Callbacks) SetSend(cb interfaces.SendCallback) {
	c.mu.Lock()
	c.send = cb
	c.mu.Unlock()
}

// SetRecv 登记接收回调，nil 表示注销
func (c *Callbacks) SetRecv(cb interfaces.RecvCallback) {
	c.mu.Lock()
	c.recv = cb
	c.mu.Unlock()
}

// Reset 注销全部回调
func (c *Callbacks) Reset() {
	c.mu.Lock()
	c.send, c.recv = nil, nil
	c.mu.Unlock()
}

// NotifySend 调用发送完成回调，未登记时返回 false
func (c *Callbacks) NotifySend(dst types.MAC, status types.SendStatus) bool {
	c.mu.RLock()
	cb := c.send
	c.mu.RUnlock()

	if cb == nil {
		return false
	}
	cb(dst, status)
	return true
}

// NotifyRecv 调用接收回调，未登记时返回 false
func (c *Callbacks) NotifyRecv(info interfaces.RecvInfo) bool {
	c.mu.RLock()
	cb := c.recv
	c.mu.RUnlock()

	if cb == nil {
		return false
	}
	cb(info)
	return true
}
