package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dep2p/go-rawlink/internal/core/eventqueue"
	"github.com/dep2p/go-rawlink/internal/core/frame"
	"github.com/dep2p/go-rawlink/internal/core/metrics"
	"github.com/dep2p/go-rawlink/internal/util/logger"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
)

var log = logger.Logger("rendezvous")

// Engine 汇合引擎
//
// 同一时刻最多运行一轮。Start 完成链路准备后启动运行 goroutine，
// 本轮的所有协议状态只在该 goroutine 中修改。
type Engine struct {
	cfg       Config
	link      interfaces.Link
	clock     clock.Clock
	rand      RandSource
	reporter  interfaces.Reporter
	table     interfaces.ConnTable
	sightings *sightings

	mu      sync.Mutex
	running bool
	queue   *eventqueue.Queue[event]
	done    chan struct{}
	err     error
	status  types.RendezvousStatus
}

// New 创建汇合引擎
func New(link interfaces.Link, cfg Config, opts ...Option) (*Engine, error) {
	if link == nil {
		return nil, ErrNilLink
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s, err := newSightings(cfg.SightingsSize)
	if err != nil {
		return nil, fmt.Errorf("rendezvous: create sightings: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		link:      link,
		clock:     clock.New(),
		rand:      globalRand{},
		reporter:  metrics.Nop(),
		sightings: s,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 准备链路并启动一轮汇合
//
// 依次：创建事件队列、初始化链路、设置信道、注册回调、添加广播对端、
// 抽取 magic、发出首个广播（在运行 goroutine 中）。任一步失败都会按
// 相反顺序撤销已完成的步骤。ctx 只约束准备阶段，运行不受其取消影响。
func (e *Engine) Start(ctx context.Context) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrBusy
	}
	e.running = true
	e.mu.Unlock()

	var (
		q    *eventqueue.Queue[event]
		undo []func() error
	)
	defer func() {
		if err == nil {
			return
		}
		// 先关闭队列，解除回调中可能阻塞的入队
		if q != nil {
			q.Close()
		}
		for i := len(undo) - 1; i >= 0; i-- {
			err = multierr.Append(err, undo[i]())
		}
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		log.Warn("启动失败", "err", err)
	}()

	q, err = eventqueue.New[event]("rendezvous", e.cfg.QueueSize, e.cfg.Overflow)
	if err != nil {
		return fmt.Errorf("create event queue: %w", err)
	}

	if err := e.link.Init(); err != nil {
		return fmt.Errorf("init link: %w", err)
	}
	undo = append(undo, e.link.Deinit)

	if err := e.link.SetChannel(e.cfg.Channel); err != nil {
		return fmt.Errorf("set channel %d: %w", e.cfg.Channel, err)
	}

	if err := e.link.RegisterSendCallback(e.sendCallback(q)); err != nil {
		return fmt.Errorf("register send callback: %w", err)
	}
	undo = append(undo, func() error { return e.link.RegisterSendCallback(nil) })

	if err := e.link.RegisterRecvCallback(e.recvCallback(q)); err != nil {
		return fmt.Errorf("register recv callback: %w", err)
	}
	undo = append(undo, func() error { return e.link.RegisterRecvCallback(nil) })

	if err := e.link.AddPeer(interfaces.PeerInfo{
		MAC:     types.BroadcastMAC,
		Channel: e.cfg.Channel,
		Iface:   types.IfaceSTA,
	}); err != nil {
		return fmt.Errorf("add broadcast peer: %w", err)
	}

	runID := uuid.NewString()
	p := newSendParams(runID, e.cfg, e.rand.Uint32())
	p.log = log.With("run", runID)
	e.sightings.reset()

	done := make(chan struct{})
	e.mu.Lock()
	e.queue = q
	e.done = done
	e.err = nil
	e.status = p.status()
	e.mu.Unlock()
	e.reporter.StateChanged(types.StateBroadcasting)

	p.log.Info("汇合开始",
		"local", e.link.LocalMAC(),
		"channel", e.cfg.Channel,
		"magic", p.magic,
		"count", p.count,
		"delay", p.delay)

	go e.run(p, q, done)
	return nil
}

// Stop 请求结束当前一轮
//
// 退出事件排在已入队事件之后，Stop 不等待运行结束；需要等待时使用
// Done 或 Wait。未运行时返回 nil。
func (e *Engine) Stop() error {
	e.mu.Lock()
	running, q := e.running, e.queue
	e.mu.Unlock()

	if !running || q == nil {
		return nil
	}
	err := q.Push(context.Background(), exitEvent{})
	if errors.Is(err, eventqueue.ErrClosed) {
		return nil
	}
	return err
}

// Done 当前一轮结束时关闭，从未启动时返回 nil
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done == nil {
		return nil
	}
	return e.done
}

// Wait 等待当前一轮结束并返回其结束原因
func (e *Engine) Wait(ctx context.Context) error {
	done := e.Done()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return e.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err 最近一轮的结束原因
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Status 当前状态快照
func (e *Engine) Status() types.RendezvousStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Running 是否正在运行
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Sightings 最近观察到的对端，由旧到新
func (e *Engine) Sightings() []types.PeerSighting {
	return e.sightings.list()
}

// ============================================================================
//                              链路回调
// ============================================================================

// sendCallback 把发送完成转成事件，不阻塞链路
func (e *Engine) sendCallback(q *eventqueue.Queue[event]) interfaces.SendCallback {
	return func(dst types.MAC, status types.SendStatus) {
		e.enqueue(q, sendDoneEvent{dst: dst, status: status})
	}
}

// recvCallback 拷贝数据后转成事件
func (e *Engine) recvCallback(q *eventqueue.Queue[event]) interfaces.RecvCallback {
	return func(info interfaces.RecvInfo) {
		data := make([]byte, len(info.Data))
		copy(data, info.Data)
		e.enqueue(q, recvEvent{src: info.Src, data: data})
	}
}

func (e *Engine) enqueue(q *eventqueue.Queue[event], ev event) {
	err := q.Offer(ev)
	switch {
	case err == nil:
	case errors.Is(err, eventqueue.ErrFull):
		e.reporter.EventDropped()
	case errors.Is(err, eventqueue.ErrClosed):
		// 本轮已结束
	default:
		log.Debug("事件入队失败", "err", err)
	}
}

// ============================================================================
//                              运行循环
// ============================================================================

func (e *Engine) run(p *sendParams, q *eventqueue.Queue[event], done chan struct{}) {
	runErr := e.loop(p, q)
	if runErr != nil {
		p.log.Warn("汇合异常结束", "err", runErr)
	}

	if err := e.teardown(p, q); err != nil {
		p.log.Warn("释放链路失败", "err", err)
		runErr = multierr.Append(runErr, err)
	}

	final := p.status()
	final.State = types.StateStopped

	e.mu.Lock()
	e.err = runErr
	e.status = final
	e.running = false
	e.mu.Unlock()
	e.reporter.StateChanged(types.StateStopped)

	p.log.Info("汇合结束",
		"unicastSent", p.seq[types.FrameUnicast],
		"broadcastSent", p.seq[types.FrameBroadcast])
	close(done)
}

func (e *Engine) loop(p *sendParams, q *eventqueue.Queue[event]) error {
	if err := e.send(p); err != nil {
		return err
	}

	for {
		ev, err := q.Pop(context.Background())
		if err != nil {
			return err
		}

		switch ev := ev.(type) {
		case exitEvent:
			p.log.Info("收到退出请求")
			return nil
		case sendDoneEvent:
			err = e.handleSendDone(p, ev)
		case recvEvent:
			err = e.handleRecv(p, ev)
		default:
			p.log.Warn("未知事件", "event", fmt.Sprintf("%T", ev))
		}

		e.publish(p)
		if errors.Is(err, errRunComplete) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// handleSendDone 上一帧发送完成，决定是否继续发送
func (e *Engine) handleSendDone(p *sendParams, ev sendDoneEvent) error {
	if ev.status != types.SendSuccess {
		p.log.Warn("发送未确认", "dst", ev.dst, "status", ev.status)
	}

	if ev.dst.IsBroadcast() {
		if !p.broadcast {
			return nil
		}
	} else {
		p.count--
		if p.count <= 0 {
			p.log.Info("单播发送完成", "peer", ev.dst)
			return errRunComplete
		}
	}

	if p.delay > 0 {
		e.clock.Sleep(p.delay)
	}
	p.dest = ev.dst
	return e.send(p)
}

// handleRecv 处理收到的帧
func (e *Engine) handleRecv(p *sendParams, ev recvEvent) error {
	if ev.src.IsSentinel() {
		e.reporter.FrameInvalid("source")
		p.log.Debug("丢弃帧", "src", ev.src, "err", ErrInvalidSource)
		return nil
	}

	f, err := frame.Parse(ev.data)
	if err != nil {
		e.reporter.FrameInvalid(frame.Reason(err))
		p.log.Debug("丢弃无效帧", "src", ev.src, "len", len(ev.data), "err", err)
		return nil
	}
	e.reporter.FrameReceived(f.Kind, f.Len)
	e.sightings.observe(ev.src, f, e.clock.Now())

	p.log.Debug("收到帧",
		"kind", f.Kind,
		"seq", f.Seq,
		"src", ev.src,
		"len", f.Len,
		"state", f.State,
		"magic", f.Magic)

	switch f.Kind {
	case types.FrameBroadcast:
		return e.handleBroadcast(p, ev.src, f)
	case types.FrameUnicast:
		if p.broadcast {
			p.log.Info("收到单播，停止广播", "peer", ev.src)
		}
		p.broadcast = false
	}
	return nil
}

// handleBroadcast 收到对端广播：登记对端并尝试决出单播发送方
func (e *Engine) handleBroadcast(p *sendParams, src types.MAC, f frame.Frame) error {
	if !e.link.PeerExists(src) {
		err := e.link.AddPeer(interfaces.PeerInfo{
			MAC:     src,
			Channel: e.cfg.Channel,
			Iface:   types.IfaceSTA,
			Encrypt: true,
		})
		if err != nil {
			p.log.Warn("添加对端失败", "peer", src, "err", err)
		} else {
			e.trackPeer(p, src)
		}
	}

	if p.localState == 0 {
		p.localState = 1
	}

	if f.State == 1 && !p.unicast && p.magic >= f.Magic {
		p.dest = src
		if err := e.send(p); err != nil {
			return err
		}
		p.broadcast = false
		p.unicast = true
		p.log.Info("决出单播发送方",
			"peer", src,
			"magic", p.magic,
			"peerMagic", f.Magic)
	}
	return nil
}

// send 按当前目标编码并发送
func (e *Engine) send(p *sendParams) error {
	kind, err := p.prepare(e.rand, e.cfg.FillRandomPayload)
	if err != nil {
		return err
	}
	if err := e.link.Send(p.dest, p.buf); err != nil {
		e.reporter.SendFailed()
		return fmt.Errorf("send %s frame to %s: %w", kind, p.dest, err)
	}
	e.reporter.FrameSent(kind, len(p.buf))
	p.log.Debug("发送帧",
		"kind", kind,
		"dst", p.dest,
		"seq", p.seq[kind]-1,
		"state", p.localState)
	return nil
}

// publish 发布状态快照，状态变化时上报
func (e *Engine) publish(p *sendParams) {
	st := p.status()

	e.mu.Lock()
	prev := e.status.State
	e.status = st
	e.mu.Unlock()

	if prev != st.State {
		e.reporter.StateChanged(st.State)
		p.log.Debug("状态变化", "from", prev, "to", st.State)
	}
}

// ============================================================================
//                              连接表与释放
// ============================================================================

// trackPeer 为新发现的对端在连接表中分配条目
func (e *Engine) trackPeer(p *sendParams, src types.MAC) {
	if !e.cfg.TrackPeers || e.table == nil {
		return
	}
	if _, ok := e.table.FindByAddr(src); ok {
		return
	}
	entry, err := e.table.Allocate(src, e.cfg.PeerDataLen)
	if err != nil {
		p.log.Warn("连接表分配失败", "peer", src, "err", err)
		return
	}
	p.tracked = append(p.tracked, src)
	p.log.Debug("对端已登记", "peer", src, "handle", entry.Handle)
}

// teardown 注销回调、移除对端并释放链路
//
// 在运行 goroutine 中调用，此时不会再有事件被处理。
func (e *Engine) teardown(p *sendParams, q *eventqueue.Queue[event]) error {
	// 先关闭队列：阻塞策略下链路回调可能正等待入队，Deinit 会等待它返回
	q.Close()

	err := multierr.Combine(
		e.link.RegisterSendCallback(nil),
		e.link.RegisterRecvCallback(nil),
	)
	if e.link.PeerExists(types.BroadcastMAC) {
		err = multierr.Append(err, e.link.RemovePeer(types.BroadcastMAC))
	}
	err = multierr.Append(err, e.link.Deinit())

	if e.table != nil {
		for _, addr := range p.tracked {
			deleted, derr := e.table.DeleteUnbound(addr)
			switch {
			case derr != nil:
				p.log.Debug("释放连接表条目失败", "peer", addr, "err", derr)
			case !deleted:
				p.log.Debug("对端已建立会话，保留条目", "peer", addr)
			}
		}
	}
	return err
}

var _ interfaces.Rendezvous = (*Engine)(nil)
