package mocks

import (
	"sync"

	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
)

// SentFrame 一次发送记录
type SentFrame struct {
	Dst  types.MAC
	Data []byte
}

// MockLink 模拟 Link 接口实现
type MockLink struct {
	mu sync.Mutex

	// 基本属性
	MAC     types.MAC
	Channel uint8
	Inited  bool
	Peers   map[types.MAC]interfaces.PeerInfo

	sendCb interfaces.SendCallback
	recvCb interfaces.RecvCallback

	// 可覆盖的方法
	InitFunc       func() error
	DeinitFunc     func() error
	SetChannelFunc func(ch uint8) error
	AddPeerFunc    func(peer interfaces.PeerInfo) error
	RemovePeerFunc func(mac types.MAC) error
	SendFunc       func(dst types.MAC, data []byte) error

	// 调用记录
	Sent        []SentFrame
	AddedPeers  []interfaces.PeerInfo
	InitCalls   int
	DeinitCalls int
}

// NewMockLink 创建 MockLink
func NewMockLink(mac types.MAC) *MockLink {
	return &MockLink{
		MAC:   mac,
		Peers: make(map[types.MAC]interfaces.PeerInfo),
	}
}

// Init 初始化
func (m *MockLink) Init() error {
	m.mu.Lock()
	m.InitCalls++
	fn := m.InitFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Inited = true
	m.mu.Unlock()
	return nil
}

// Deinit 释放
func (m *MockLink) Deinit() error {
	m.mu.Lock()
	m.DeinitCalls++
	m.Inited = false
	m.Peers = make(map[types.MAC]interfaces.PeerInfo)
	fn := m.DeinitFunc
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

// SetChannel 设置信道
func (m *MockLink) SetChannel(ch uint8) error {
	if m.SetChannelFunc != nil {
		if err := m.SetChannelFunc(ch); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Channel = ch
	m.mu.Unlock()
	return nil
}

// LocalMAC 本地地址
func (m *MockLink) LocalMAC() types.MAC {
	return m.MAC
}

// RegisterSendCallback 登记发送完成回调
func (m *MockLink) RegisterSendCallback(cb interfaces.SendCallback) error {
	m.mu.Lock()
	m.sendCb = cb
	m.mu.Unlock()
	return nil
}

// RegisterRecvCallback 登记接收回调
func (m *MockLink) RegisterRecvCallback(cb interfaces.RecvCallback) error {
	m.mu.Lock()
	m.recvCb = cb
	m.mu.Unlock()
	return nil
}

// AddPeer 添加对端
func (m *MockLink) AddPeer(peer interfaces.PeerInfo) error {
	if m.AddPeerFunc != nil {
		if err := m.AddPeerFunc(peer); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Peers[peer.MAC] = peer
	m.AddedPeers = append(m.AddedPeers, peer)
	m.mu.Unlock()
	return nil
}

// RemovePeer 移除对端
func (m *MockLink) RemovePeer(mac types.MAC) error {
	if m.RemovePeerFunc != nil {
		if err := m.RemovePeerFunc(mac); err != nil {
			return err
		}
	}
	m.mu.Lock()
	delete(m.Peers, mac)
	m.mu.Unlock()
	return nil
}

// PeerExists 对端是否存在
func (m *MockLink) PeerExists(mac types.MAC) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Peers[mac]
	return ok
}

// Send 记录发送
func (m *MockLink) Send(dst types.MAC, data []byte) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(dst, data); err != nil {
			return err
		}
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.Sent = append(m.Sent, SentFrame{Dst: dst, Data: buf})
	m.mu.Unlock()
	return nil
}

// ============================================================================
//                              测试辅助
// ============================================================================

// SentFrames 返回发送记录副本
func (m *MockLink) SentFrames() []SentFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentFrame, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// SentCount 发送次数
func (m *MockLink) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// LastSent 最后一次发送，没有发送时返回 false
func (m *MockLink) LastSent() (SentFrame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentFrame{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// HasCallbacks 回调是否均已登记
func (m *MockLink) HasCallbacks() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendCb != nil && m.recvCb != nil
}

// CompleteSend 触发发送完成回调，未登记时返回 false
func (m *MockLink) CompleteSend(dst types.MAC, status types.SendStatus) bool {
	m.mu.Lock()
	cb := m.sendCb
	m.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(dst, status)
	return true
}

// DeliverRecv 触发接收回调，未登记时返回 false
func (m *MockLink) DeliverRecv(src, dst types.MAC, data []byte) bool {
	m.mu.Lock()
	cb := m.recvCb
	m.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(interfaces.RecvInfo{Src: src, Dst: dst, Data: data})
	return true
}

var _ interfaces.Link = (*MockLink)(nil)
