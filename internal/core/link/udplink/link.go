// Package udplink 在 IPv4 组播组上承载原始链路
//
// 每个数据报是一个信封（见 envelope.go）：携带信道、目的与源地址。
// 接收循环丢弃自己发出的帧、其他信道的帧以及既非广播也不是发给
// 本地址的帧。UDP 没有链路层 ACK，单播写出成功即报告发送成功。
package udplink

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/net/ipv4"

	"github.com/dep2p/go-rawlink/internal/core/link/radio"
	"github.com/dep2p/go-rawlink/internal/util/logger"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
)

var log = logger.Logger("link.udp")

// ============================================================================
//                              配置
// ============================================================================

// Config 组播链路配置
type Config struct {
	// Group 组播组地址（ip:port）
	Group string

	// Interface 网卡名，空表示系统默认
	Interface string

	// MAC 本地地址，全 0 时随机生成本地管理地址
	MAC types.MAC

	// TTL 组播 TTL
	TTL int

	// Loopback 是否接收本机发出的组播（同机多进程需要）
	Loopback bool

	// MaxPeers 对端表容量
	MaxPeers int
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Group:    "239.82.76.1:47476",
		TTL:      1,
		Loopback: true,
		MaxPeers: radio.DefaultMaxPeers,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	addr, err := net.ResolveUDPAddr("udp4", c.Group)
	if err != nil {
		return fmt.Errorf("udplink: group: %w", err)
	}
	if !addr.IP.IsMulticast() {
		return fmt.Errorf("udplink: %s is not a multicast address", c.Group)
	}
	if c.TTL < 0 || c.TTL > 255 {
		return fmt.Errorf("udplink: ttl %d out of range", c.TTL)
	}
	if c.MAC.IsBroadcast() {
		return fmt.Errorf("%w: %s", radio.ErrInvalidPeer, c.MAC)
	}
	return nil
}

// ============================================================================
//                              Link
// ============================================================================

const txQueueSize = 16

type txReq struct {
	dst  types.MAC
	data []byte
}

// Link 组播链路
type Link struct {
	cfg   Config
	mac   types.MAC
	group *net.UDPAddr
	peers *radio.PeerList
	cbs   radio.Callbacks

	mu      sync.Mutex
	inited  bool
	channel uint8
	ifi     *net.Interface
	conn    *net.UDPConn
	pc      *ipv4.PacketConn
	txq     chan txReq
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New 创建链路（不打开套接字）
func New(cfg Config) (*Link, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	group, err := net.ResolveUDPAddr("udp4", cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("udplink: group: %w", err)
	}

	mac := cfg.MAC
	if mac.IsZero() {
		mac = types.LocalMAC(rand.Uint32())
	}

	return &Link{
		cfg:     cfg,
		mac:     mac,
		group:   group,
		peers:   radio.NewPeerList(cfg.MaxPeers),
		channel: radio.MinChannel,
	}, nil
}

// Init 加入组播组并启动收发 goroutine
func (l *Link) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inited {
		return nil
	}

	var ifi *net.Interface
	if l.cfg.Interface != "" {
		i, err := net.InterfaceByName(l.cfg.Interface)
		if err != nil {
			return fmt.Errorf("udplink: interface %q: %w", l.cfg.Interface, err)
		}
		ifi = i
	}

	conn, err := net.ListenMulticastUDP("udp4", ifi, l.group)
	if err != nil {
		return fmt.Errorf("udplink: listen %s: %w", l.group, err)
	}

	pc := ipv4.NewPacketConn(conn)
	err = multierr.Combine(
		pc.SetMulticastTTL(l.cfg.TTL),
		pc.SetMulticastLoopback(l.cfg.Loopback),
	)
	if ifi != nil {
		err = multierr.Append(err, pc.SetMulticastInterface(ifi))
	}
	if err != nil {
		return multierr.Append(fmt.Errorf("udplink: socket options: %w", err), conn.Close())
	}

	l.ifi, l.conn, l.pc = ifi, conn, pc
	l.txq = make(chan txReq, txQueueSize)
	l.stop = make(chan struct{})
	l.inited = true

	l.wg.Add(2)
	go l.readLoop(pc)
	go l.txLoop(pc, l.txq, l.stop)

	log.Info("组播链路已初始化", "mac", l.mac, "group", l.group, "iface", l.cfg.Interface)
	return nil
}

// Deinit 离开组播组、关闭套接字并等待 goroutine 退出
func (l *Link) Deinit() error {
	l.mu.Lock()
	if !l.inited {
		l.mu.Unlock()
		return nil
	}
	l.inited = false
	close(l.stop)
	pc, conn, ifi := l.pc, l.conn, l.ifi
	l.pc, l.conn = nil, nil
	l.mu.Unlock()

	err := multierr.Combine(
		pc.LeaveGroup(ifi, &net.UDPAddr{IP: l.group.IP}),
		conn.Close(),
	)
	l.wg.Wait()

	l.peers.Reset()
	l.cbs.Reset()

	log.Info("组播链路已释放", "mac", l.mac)
	return err
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

func (l *Link) currentChannel() uint8 {
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
	txq := l.txq
	l.mu.Unlock()

	if !l.peers.Exists(dst) {
		return fmt.Errorf("%w: %s", radio.ErrPeerNotFound, dst)
	}

	env := Envelope{Channel: l.currentChannel(), Dst: dst, Src: l.mac, Payload: data}
	select {
	case txq <- txReq{dst: dst, data: env.Marshal()}:
		return nil
	default:
		return radio.ErrTxBusy
	}
}

func (l *Link) txLoop(pc *ipv4.PacketConn, txq <-chan txReq, stop <-chan struct{}) {
	defer l.wg.Done()

	for {
		select {
		case <-stop:
			return
		case req := <-txq:
			status := types.SendSuccess
			if _, err := pc.WriteTo(req.data, nil, l.group); err != nil {
				log.Warn("组播写出失败", "dst", req.dst, "err", err)
				status = types.SendFail
			}
			l.cbs.NotifySend(req.dst, status)
		}
	}
}

func (l *Link) readLoop(pc *ipv4.PacketConn) {
	defer l.wg.Done()

	buf := make([]byte, EnvelopeHeaderSize+radio.MaxFrameSize)
	for {
		n, _, _, err := pc.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Debug("组播读取失败", "err", err)
			continue
		}
		l.handle(buf[:n])
	}
}

// handle 过滤并上交一个数据报，返回是否上交
func (l *Link) handle(datagram []byte) bool {
	env, err := UnmarshalEnvelope(datagram)
	if err != nil {
		log.Debug("丢弃无效数据报", "err", err)
		return false
	}
	if env.Src == l.mac {
		return false
	}
	if env.Channel != l.currentChannel() {
		return false
	}
	if !env.Dst.IsBroadcast() && env.Dst != l.mac {
		return false
	}

	data := make([]byte, len(env.Payload))
	copy(data, env.Payload)
	l.cbs.NotifyRecv(interfaces.RecvInfo{Src: env.Src, Dst: env.Dst, Data: data})
	return true
}

var _ interfaces.Link = (*Link)(nil)
