package memlink

import (
	"fmt"
	"sync"

	"github.com/dep2p/go-rawlink/internal/core/link/radio"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
)

// txQueueSize 每条链路的发送队列长度
const txQueueSize = 16

type txReq struct {
	dst  types.MAC
	ch   uint8
	data []byte
}

// Link 介质上的一条链路
type Link struct {
	medium *Medium
	mac    types.MAC
	peers  *radio.PeerList
	cbs    radio.Callbacks

	mu      sync.Mutex
	inited  bool
	channel uint8
	txq     chan txReq
	stop    chan struct{}
	wg      sync.WaitGroup
}

func newLink(m *Medium, mac types.MAC) *Link {
	return &Link{
		medium:  m,
		mac:     mac,
		peers:   radio.NewPeerList(m.maxPeers),
		channel: radio.MinChannel,
	}
}

// Init 初始化链路并启动发送 goroutine，重复调用无副作用
func (l *Link) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inited {
		return nil
	}

	l.txq = make(chan txReq, txQueueSize)
	l.stop = make(chan struct{})
	l.inited = true

	l.wg.Add(1)
	go l.txLoop(l.txq, l.stop)

	log.Debug("链路已初始化", "mac", l.mac, "channel", l.channel)
	return nil
}

// Deinit 停止发送 goroutine，清空对端表与回调
func (l *Link) Deinit() error {
	l.mu.Lock()
	if !l.inited {
		l.mu.Unlock()
		return nil
	}
	l.inited = false
	close(l.stop)
	l.mu.Unlock()

	l.wg.Wait()
	l.peers.Reset()
	l.cbs.Reset()

	log.Debug("链路已释放", "mac", l.mac)
	return nil
}

// Initialized 是否已初始化
func (l *Link) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inited
}

// SetChannel 设置信道
func (l *Link) SetChannel(ch uint8) error {
	if err := radio.ValidateChannel(ch); err != nil {
		return err
	}
	l.mu.Lock()
	l.channel = ch
	l.mu.Unlock()
	return nil
}

// Channel 当前信道
func (l *Link) Channel() uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.channel
}

// LocalMAC 本地地址
func (l *Link) LocalMAC() types.MAC {
	return l.mac
}

// RegisterSendCallback 登记发送完成回调
func (l *Link) RegisterSendCallback(cb interfaces.SendCallback) error {
	l.cbs.SetSend(cb)
	return nil
}

// RegisterRecvCallback 登记接收回调
func (l *Link) RegisterRecvCallback(cb interfaces.RecvCallback) error {
	l.cbs.SetRecv(cb)
	return nil
}

// AddPeer 添加对端
func (l *Link) AddPeer(peer interfaces.PeerInfo) error {
	return l.peers.Add(peer)
}

// RemovePeer 移除对端
func (l *Link) RemovePeer(mac types.MAC) error {
	return l.peers.Remove(mac)
}

// PeerExists 对端是否存在
func (l *Link) PeerExists(mac types.MAC) bool {
	return l.peers.Exists(mac)
}

// Send 异步发送一帧
func (l *Link) Send(dst types.MAC, data []byte) error {
	if len(data) > radio.MaxFrameSize {
		return fmt.Errorf("%w: %d", radio.ErrFrameTooLarge, len(data))
	}

	l.mu.Lock()
	if !l.inited {
		l.mu.Unlock()
		return radio.ErrNotInitialized
	}
	txq, ch := l.txq, l.channel
	l.mu.Unlock()

	if !l.peers.Exists(dst) {
		return fmt.Errorf("%w: %s", radio.ErrPeerNotFound, dst)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	select {
	case txq <- txReq{dst: dst, ch: ch, data: buf}:
		return nil
	default:
		return radio.ErrTxBusy
	}
}

func (l *Link) txLoop(txq <-chan txReq, stop <-chan struct{}) {
	defer l.wg.Done()

	for {
		select {
		case <-stop:
			return
		case req := <-txq:
			l.medium.airTime()

			n := l.medium.deliver(l, req.ch, req.dst, req.data)
			status := types.SendSuccess
			if !req.dst.IsBroadcast() && n == 0 {
				status = types.SendFail
			}
			l.cbs.NotifySend(req.dst, status)
		}
	}
}

// receive 介质投递入口，链路未初始化或信道不同时不接收
func (l *Link) receive(src, dst types.MAC, ch uint8, data []byte) bool {
	l.mu.Lock()
	ok := l.inited && l.channel == ch
	l.mu.Unlock()

	if !ok {
		return false
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	l.cbs.NotifyRecv(interfaces.RecvInfo{Src: src, Dst: dst, Data: buf})
	return true
}
