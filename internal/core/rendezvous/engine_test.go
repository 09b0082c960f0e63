package rendezvous

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-rawlink/internal/core/conntable"
	"github.com/dep2p/go-rawlink/internal/core/eventqueue"
	"github.com/dep2p/go-rawlink/internal/core/frame"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
	"github.com/dep2p/go-rawlink/tests/mocks"
)

var (
	localMAC = types.LocalMAC(0xa)
	peerMAC  = types.LocalMAC(0xb)
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fixedRand 固定随机数
type fixedRand uint32

func (r fixedRand) Uint32() uint32 { return uint32(r) }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SendDelay = 0
	cfg.SendCount = 3
	cfg.QueueSize = 16
	return cfg
}

func newTestEngine(t *testing.T, link *mocks.MockLink, cfg Config, magic uint32, opts ...Option) (*Engine, *mocks.MockReporter) {
	t.Helper()
	rep := mocks.NewMockReporter()
	opts = append([]Option{WithRand(fixedRand(magic)), WithReporter(rep)}, opts...)
	e, err := New(link, cfg, opts...)
	require.NoError(t, err)
	return e, rep
}

// start 启动并在测试结束时停止
func start(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() {
		_ = e.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = e.Wait(ctx)
	})
}

// stopAndWait 请求停止并等待结束
func stopAndWait(t *testing.T, e *Engine) error {
	t.Helper()
	require.NoError(t, e.Stop())
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	err := e.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return err
}

func peerFrame(t *testing.T, kind types.FrameKind, state uint8, seq uint16, magic uint32) []byte {
	t.Helper()
	buf := make([]byte, frame.HeaderSize)
	_, err := frame.Encode(buf, frame.Header{Kind: kind, State: state, Seq: seq, Magic: magic})
	require.NoError(t, err)
	return buf
}

func sentFrame(t *testing.T, link *mocks.MockLink, i int) (types.MAC, frame.Frame) {
	t.Helper()
	sent := link.SentFrames()
	require.Greater(t, len(sent), i)
	f, err := frame.Parse(sent[i].Data)
	require.NoError(t, err)
	return sent[i].Dst, f
}

func waitSent(t *testing.T, link *mocks.MockLink, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return link.SentCount() >= n }, waitFor, tick)
}

// ============================================================================
// 启动与广播
// ============================================================================

// TestEngine_Start 测试启动后的链路准备与首个广播
func TestEngine_Start(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, rep := newTestEngine(t, link, testConfig(), 500)
	start(t, e)

	waitSent(t, link, 1)

	assert.True(t, link.Inited)
	assert.Equal(t, uint8(1), link.Channel)
	assert.True(t, link.PeerExists(types.BroadcastMAC))
	assert.True(t, link.HasCallbacks())

	dst, f := sentFrame(t, link, 0)
	assert.Equal(t, types.BroadcastMAC, dst)
	assert.Equal(t, types.FrameBroadcast, f.Kind)
	assert.Equal(t, uint8(0), f.State)
	assert.Equal(t, uint16(0), f.Seq)
	assert.Equal(t, uint32(500), f.Magic)
	assert.Equal(t, frame.HeaderSize, f.Len)

	st := e.Status()
	assert.Equal(t, types.StateBroadcasting, st.State)
	assert.NotEmpty(t, st.RunID)
	assert.True(t, st.BroadcastActive)
	assert.Equal(t, []types.RendezvousState{types.StateBroadcasting}, rep.StateHistory())

	t.Log("✅ 启动后发出首个广播")
}

// TestEngine_BroadcastRepeats 测试广播完成后继续广播
func TestEngine_BroadcastRepeats(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, testConfig(), 500)
	start(t, e)
	waitSent(t, link, 1)

	for i := 1; i <= 3; i++ {
		require.True(t, link.CompleteSend(types.BroadcastMAC, types.SendSuccess))
		waitSent(t, link, i+1)

		dst, f := sentFrame(t, link, i)
		assert.Equal(t, types.BroadcastMAC, dst)
		assert.Equal(t, uint16(i), f.Seq)
	}

	// 广播次数不受 count 限制
	assert.True(t, e.Running())
	t.Log("✅ 广播持续进行且序号递增")
}

// TestEngine_RandomPayload 测试负载填充
func TestEngine_RandomPayload(t *testing.T) {
	cfg := testConfig()
	cfg.SendLen = 32
	cfg.FillRandomPayload = true

	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, cfg, 0x01020304)
	start(t, e)
	waitSent(t, link, 1)

	_, f := sentFrame(t, link, 0)
	assert.Equal(t, 32, f.Len)
	require.Len(t, f.Payload, 32-frame.HeaderSize)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, f.Payload[:4])
}

// ============================================================================
// 决选
// ============================================================================

func TestEngine_TieBreak(t *testing.T) {
	tests := []struct {
		name      string
		magic     uint32
		peerMagic uint32
		peerState uint8
		wantWin   bool
		wantState types.RendezvousState
	}{
		{"larger_magic_wins", 500, 300, 1, true, types.StateUnicasting},
		{"equal_magic_wins", 300, 300, 1, true, types.StateUnicasting},
		{"smaller_magic_waits", 300, 500, 1, false, types.StateNegotiating},
		{"peer_state_zero", 500, 300, 0, false, types.StateNegotiating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := mocks.NewMockLink(localMAC)
			e, _ := newTestEngine(t, link, testConfig(), tt.magic)
			start(t, e)
			waitSent(t, link, 1)

			require.True(t, link.DeliverRecv(peerMAC, types.BroadcastMAC,
				peerFrame(t, types.FrameBroadcast, tt.peerState, 1, tt.peerMagic)))

			require.Eventually(t, func() bool {
				return e.Status().State == tt.wantState
			}, waitFor, tick)
			assert.True(t, link.PeerExists(peerMAC))

			if tt.wantWin {
				waitSent(t, link, 2)
				dst, f := sentFrame(t, link, 1)
				assert.Equal(t, peerMAC, dst)
				assert.Equal(t, types.FrameUnicast, f.Kind)
				assert.Equal(t, uint8(1), f.State)
				assert.Equal(t, uint16(0), f.Seq)

				st := e.Status()
				assert.False(t, st.BroadcastActive)
				assert.True(t, st.UnicastActive)
				assert.Equal(t, peerMAC, st.Dest)
			} else {
				assert.Equal(t, 1, link.SentCount())
				assert.True(t, e.Status().BroadcastActive)
			}
		})
	}
}

// TestEngine_DiscoveredPeerInfo 测试发现的对端属性
func TestEngine_DiscoveredPeerInfo(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, testConfig(), 500)
	start(t, e)
	waitSent(t, link, 1)

	link.DeliverRecv(peerMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 0, 0, 1))
	require.Eventually(t, func() bool { return link.PeerExists(peerMAC) }, waitFor, tick)

	peer := link.AddedPeers[len(link.AddedPeers)-1]
	assert.Equal(t, peerMAC, peer.MAC)
	assert.Equal(t, uint8(1), peer.Channel)
	assert.Equal(t, types.IfaceSTA, peer.Iface)
	assert.True(t, peer.Encrypt)

	// 下一次广播携带状态位 1
	link.CompleteSend(types.BroadcastMAC, types.SendSuccess)
	waitSent(t, link, 2)
	_, f := sentFrame(t, link, 1)
	assert.Equal(t, uint8(1), f.State)
}

// TestEngine_WinnerIgnoresLateBroadcastCompletion 测试胜出后广播完成被忽略
func TestEngine_WinnerIgnoresLateBroadcastCompletion(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, testConfig(), 500)
	start(t, e)
	waitSent(t, link, 1)

	link.DeliverRecv(peerMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 1, 1, 300))
	waitSent(t, link, 2)

	link.CompleteSend(types.BroadcastMAC, types.SendSuccess)
	link.CompleteSend(peerMAC, types.SendSuccess)
	waitSent(t, link, 3)

	sent := link.SentFrames()
	require.Len(t, sent, 3)
	assert.Equal(t, types.BroadcastMAC, sent[0].Dst)
	assert.Equal(t, peerMAC, sent[1].Dst)
	assert.Equal(t, peerMAC, sent[2].Dst)

	_, f := sentFrame(t, link, 2)
	assert.Equal(t, uint16(1), f.Seq)
	t.Log("✅ 单播开始后不再广播")
}

// TestEngine_UnicastStopsBroadcast 测试收到单播后停止广播
func TestEngine_UnicastStopsBroadcast(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, rep := newTestEngine(t, link, testConfig(), 300)
	start(t, e)
	waitSent(t, link, 1)

	link.DeliverRecv(peerMAC, localMAC, peerFrame(t, types.FrameUnicast, 1, 0, 500))
	require.Eventually(t, func() bool { return !e.Status().BroadcastActive }, waitFor, tick)

	link.CompleteSend(types.BroadcastMAC, types.SendSuccess)
	require.NoError(t, stopAndWait(t, e))

	assert.Equal(t, 1, link.SentCount())
	assert.Equal(t, 1, rep.Received[types.FrameUnicast])
	t.Log("✅ 收到单播后停止广播")
}

// ============================================================================
// 无效帧
// ============================================================================

func TestEngine_InvalidFramesDropped(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, rep := newTestEngine(t, link, testConfig(), 500)
	start(t, e)
	waitSent(t, link, 1)

	corrupt := peerFrame(t, types.FrameBroadcast, 1, 0, 300)
	corrupt[4] ^= 0x01

	link.DeliverRecv(peerMAC, types.BroadcastMAC, corrupt)
	link.DeliverRecv(peerMAC, types.BroadcastMAC, []byte{0, 1, 2})
	link.DeliverRecv(types.ZeroMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 1, 0, 300))

	require.Eventually(t, func() bool {
		return rep.InvalidCount("checksum") == 1 &&
			rep.InvalidCount("short") == 1 &&
			rep.InvalidCount("source") == 1
	}, waitFor, tick)

	assert.False(t, link.PeerExists(peerMAC))
	assert.Equal(t, types.StateBroadcasting, e.Status().State)
	assert.Equal(t, uint8(0), e.Status().LocalState)
	assert.Empty(t, e.Sightings())
	t.Log("✅ 无效帧被丢弃且不改变状态")
}

// ============================================================================
// 结束条件
// ============================================================================

// TestEngine_CountTermination 测试单播次数用完后结束
func TestEngine_CountTermination(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, rep := newTestEngine(t, link, testConfig(), 500)
	require.NoError(t, e.Start(context.Background()))
	waitSent(t, link, 1)

	link.DeliverRecv(peerMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 1, 1, 300))
	waitSent(t, link, 2)

	// 第一次单播已发出，再完成 count 次后结束
	for i := 0; i < 3; i++ {
		status := types.SendSuccess
		if i == 1 {
			status = types.SendFail
		}
		link.CompleteSend(peerMAC, status)
	}

	select {
	case <-e.Done():
	case <-time.After(waitFor):
		t.Fatal("engine did not finish")
	}
	require.NoError(t, e.Err())

	// 1 次广播 + 3 次单播
	assert.Equal(t, 4, link.SentCount())
	assert.False(t, e.Running())
	assert.Equal(t, types.StateStopped, e.Status().State)
	assert.Equal(t, 0, e.Status().Remaining)

	assert.Equal(t, 1, link.DeinitCalls)
	assert.False(t, link.HasCallbacks())
	assert.False(t, link.PeerExists(types.BroadcastMAC))

	history := rep.StateHistory()
	assert.Equal(t, types.StateStopped, history[len(history)-1])
	assert.Contains(t, history, types.StateUnicasting)
	t.Log("✅ 单播次数用完后本轮结束")
}

// TestEngine_SendErrorAborts 测试发送错误结束本轮
func TestEngine_SendErrorAborts(t *testing.T) {
	errBoom := errors.New("boom")

	link := mocks.NewMockLink(localMAC)
	link.SendFunc = func(dst types.MAC, _ []byte) error {
		if dst.IsBroadcast() {
			return nil
		}
		return errBoom
	}

	e, rep := newTestEngine(t, link, testConfig(), 500)
	require.NoError(t, e.Start(context.Background()))
	waitSent(t, link, 1)

	link.DeliverRecv(peerMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 1, 1, 300))

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	err := e.Wait(ctx)
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, link.DeinitCalls)
	assert.False(t, e.Running())
}

// TestEngine_SendFailStatusContinues 测试发送失败状态不影响继续发送
func TestEngine_SendFailStatusContinues(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, testConfig(), 500)
	start(t, e)
	waitSent(t, link, 1)

	link.CompleteSend(types.BroadcastMAC, types.SendFail)
	waitSent(t, link, 2)
	assert.True(t, e.Running())
}

// ============================================================================
// 启停
// ============================================================================

func TestEngine_Busy(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, testConfig(), 500)
	start(t, e)

	err := e.Start(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, link.InitCalls)
}

func TestEngine_StartCanceledContext(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, testConfig(), 500)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.Start(ctx), context.Canceled)
	assert.Zero(t, link.InitCalls)
	assert.False(t, e.Running())
}

// TestEngine_StartUnwind 测试启动失败时撤销已完成的步骤
func TestEngine_StartUnwind(t *testing.T) {
	errInit := errors.New("init failed")
	errPeer := errors.New("peer failed")

	t.Run("init", func(t *testing.T) {
		link := mocks.NewMockLink(localMAC)
		link.InitFunc = func() error { return errInit }
		e, _ := newTestEngine(t, link, testConfig(), 500)

		err := e.Start(context.Background())
		require.ErrorIs(t, err, errInit)
		assert.Zero(t, link.DeinitCalls)
		assert.False(t, link.HasCallbacks())
		assert.False(t, e.Running())
		assert.Nil(t, e.Done())
	})

	t.Run("add_peer", func(t *testing.T) {
		link := mocks.NewMockLink(localMAC)
		link.AddPeerFunc = func(interfaces.PeerInfo) error { return errPeer }
		e, _ := newTestEngine(t, link, testConfig(), 500)

		err := e.Start(context.Background())
		require.ErrorIs(t, err, errPeer)
		assert.Equal(t, 1, link.DeinitCalls)
		assert.False(t, link.HasCallbacks())
		assert.False(t, e.Running())

		// 撤销后可以再次启动
		link.AddPeerFunc = nil
		start(t, e)
		waitSent(t, link, 1)
	})
}

// TestEngine_StopProcessesQueuedEvents 测试退出事件排在已入队事件之后
func TestEngine_StopProcessesQueuedEvents(t *testing.T) {
	release := make(chan struct{})
	link := mocks.NewMockLink(localMAC)
	link.SendFunc = func(types.MAC, []byte) error {
		<-release
		return nil
	}

	e, _ := newTestEngine(t, link, testConfig(), 500)
	require.NoError(t, e.Start(context.Background()))

	link.DeliverRecv(peerMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 0, 0, 300))
	require.NoError(t, e.Stop())
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, e.Wait(ctx))

	st := e.Status()
	assert.Equal(t, types.StateStopped, st.State)
	assert.Equal(t, uint8(1), st.LocalState)
	require.Len(t, e.Sightings(), 1)
	t.Log("✅ 停止前处理完已入队事件")
}

func TestEngine_StopNotRunning(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, testConfig(), 500)

	assert.NoError(t, e.Stop())
	assert.Nil(t, e.Done())
	assert.NoError(t, e.Wait(context.Background()))
	assert.Equal(t, types.StateStopped, e.Status().State)
}

// TestEngine_Restart 测试结束后重新启动
func TestEngine_Restart(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, testConfig(), 500)

	require.NoError(t, e.Start(context.Background()))
	waitSent(t, link, 1)
	link.CompleteSend(types.BroadcastMAC, types.SendSuccess)
	waitSent(t, link, 2)
	first := e.Status().RunID
	require.NoError(t, stopAndWait(t, e))

	start(t, e)
	waitSent(t, link, 3)

	_, f := sentFrame(t, link, 2)
	assert.Equal(t, uint16(0), f.Seq)
	assert.NotEqual(t, first, e.Status().RunID)
	assert.Equal(t, 2, link.InitCalls)
}

// ============================================================================
// 事件队列、连接表与观察记录
// ============================================================================

// TestEngine_EventDropped 测试队列满时丢弃事件
func TestEngine_EventDropped(t *testing.T) {
	release := make(chan struct{})
	link := mocks.NewMockLink(localMAC)
	link.SendFunc = func(types.MAC, []byte) error {
		<-release
		return nil
	}

	cfg := testConfig()
	cfg.QueueSize = 1
	cfg.Overflow = eventqueue.PolicyDrop
	e, rep := newTestEngine(t, link, cfg, 500)
	require.NoError(t, e.Start(context.Background()))

	for i := 0; i < 3; i++ {
		link.DeliverRecv(peerMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 0, uint16(i), 300))
	}
	assert.Equal(t, 2, rep.Dropped)

	close(release)
	require.NoError(t, stopAndWait(t, e))
}

// TestEngine_TrackPeers 测试发现的对端登记到连接表
func TestEngine_TrackPeers(t *testing.T) {
	table, err := conntable.New(conntable.DefaultConfig())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.PeerDataLen = 8

	link := mocks.NewMockLink(localMAC)
	// magic 小于对端，本端只监听，条目保留到停止
	e, _ := newTestEngine(t, link, cfg, 100, WithConnTable(table))
	require.NoError(t, e.Start(context.Background()))
	waitSent(t, link, 1)

	link.DeliverRecv(peerMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 0, 0, 300))
	require.Eventually(t, func() bool { return table.Len() == 1 }, waitFor, tick)

	entry, ok := table.FindByAddr(peerMAC)
	require.True(t, ok)
	assert.Len(t, entry.Data, 8)

	require.NoError(t, stopAndWait(t, e))
	assert.Zero(t, table.Len())
	t.Log("✅ 对端在本轮结束时释放")
}

// TestEngine_TrackPeersKeepsSession 测试已建立会话的对端在本轮结束时保留
func TestEngine_TrackPeersKeepsSession(t *testing.T) {
	table, err := conntable.New(conntable.DefaultConfig())
	require.NoError(t, err)
	sessions := conntable.NewSessions(table, 0)

	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, testConfig(), 100, WithConnTable(table))
	require.NoError(t, e.Start(context.Background()))
	waitSent(t, link, 1)

	link.DeliverRecv(peerMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 0, 0, 300))
	require.Eventually(t, func() bool { return table.Len() == 1 }, waitFor, tick)

	_, err = sessions.OnConnected(peerMAC, 7)
	require.NoError(t, err)

	require.NoError(t, stopAndWait(t, e))
	got, ok := sessions.Lookup(7)
	require.True(t, ok, "session survives the end of the run")
	assert.Equal(t, peerMAC, got.Addr)
	assert.Equal(t, 1, table.Len())
	t.Log("✅ 会话条目不被引擎释放")
}

func TestEngine_Sightings(t *testing.T) {
	link := mocks.NewMockLink(localMAC)
	e, _ := newTestEngine(t, link, testConfig(), 500)
	start(t, e)
	waitSent(t, link, 1)

	link.DeliverRecv(peerMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 0, 4, 300))
	link.DeliverRecv(peerMAC, types.BroadcastMAC, peerFrame(t, types.FrameBroadcast, 0, 5, 300))

	require.Eventually(t, func() bool {
		s := e.Sightings()
		return len(s) == 1 && s[0].Frames == 2
	}, waitFor, tick)

	s := e.Sightings()[0]
	assert.Equal(t, peerMAC, s.MAC)
	assert.Equal(t, uint16(5), s.Seq)
	assert.Equal(t, uint32(300), s.Magic)
	assert.False(t, s.LastSeen.Before(s.FirstSeen))
}

// ============================================================================
// 配置
// ============================================================================

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilLink)

	cfg := DefaultConfig()
	cfg.SendLen = frame.HeaderSize - 1
	_, err = New(mocks.NewMockLink(localMAC), cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.SendCount = 0
	_, err = New(mocks.NewMockLink(localMAC), cfg)
	assert.Error(t, err)
}
