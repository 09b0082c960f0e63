package rawlink

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/internal/core/link/memlink"
	"github.com/dep2p/go-rawlink/pkg/types"
	"github.com/dep2p/go-rawlink/tests/mocks"
)

// ════════════════════════════════════════════════════════════════════════════
//                              测试辅助
// ════════════════════════════════════════════════════════════════════════════

func fastConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Rendezvous = cfg.Rendezvous.WithSendCount(5).WithSendDelay(5 * time.Millisecond)
	return cfg
}

func newTestNode(t *testing.T, opts ...Option) *Node {
	t.Helper()
	node, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Close() })
	return node
}

// ════════════════════════════════════════════════════════════════════════════
//                              构建
// ════════════════════════════════════════════════════════════════════════════

// TestNew 测试默认构建
func TestNew(t *testing.T) {
	node := newTestNode(t)

	assert.Equal(t, StateIdle, node.State())
	assert.NotNil(t, node.Rendezvous())
	assert.NotNil(t, node.Engine())
	assert.NotNil(t, node.ConnTable())
	assert.NotNil(t, node.Sessions())
	assert.NotNil(t, node.Link())
	assert.NotNil(t, node.Reporter())
	assert.NotNil(t, node.Metrics())
	assert.Empty(t, node.IntrospectAddr())
	t.Log("✅ 默认构建成功")
}

// TestNew_Errors 测试构建错误
func TestNew_Errors(t *testing.T) {
	_, err := New(WithConfig(nil))
	assert.ErrorIs(t, err, ErrNilConfig)

	_, err = New(WithPreset("turbo"))
	assert.Error(t, err)

	bad := config.NewConfig()
	bad.Link.Channel = 0
	_, err = New(WithConfig(bad))
	assert.Error(t, err)

	_, err = New(WithLink(nil))
	assert.Error(t, err)

	_, err = New(WithFxOption(fx.Invoke(func(*struct{ missing int }) {})))
	assert.Error(t, err)
	t.Log("✅ 构建错误正确返回")
}

// TestWithConfig_Copied 测试配置被复制
func TestWithConfig_Copied(t *testing.T) {
	cfg := fastConfig()
	node := newTestNode(t, WithConfig(cfg), WithPreset("lowpower"))

	cfg.Rendezvous.SendCount = 99
	got := node.Config()
	assert.Equal(t, 10, got.Rendezvous.SendCount)
	assert.Equal(t, config.Duration(5*time.Second), got.Rendezvous.SendDelay)
}

// TestWithRegisterer 测试使用外部注册器
func TestWithRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	node := newTestNode(t, WithRegisterer(reg))
	require.NotNil(t, node.Metrics())

	node.Reporter().FrameSent(types.FrameBroadcast, 10)
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// TestNode_Lifecycle 测试启动与停止
func TestNode_Lifecycle(t *testing.T) {
	mock := mocks.NewMockLink(types.LocalMAC(7))
	cfg := fastConfig()
	cfg.Rendezvous.SendDelay = config.Duration(time.Hour)

	node := newTestNode(t, WithConfig(cfg), WithLink(mock))
	assert.Same(t, mock, node.Link())

	ctx := context.Background()
	assert.ErrorIs(t, node.Stop(ctx), ErrNotStarted)
	assert.ErrorIs(t, node.Wait(ctx), ErrNotStarted)

	require.NoError(t, node.Start(ctx))
	assert.Equal(t, StateRunning, node.State())
	assert.ErrorIs(t, node.Start(ctx), ErrAlreadyStarted)

	require.Eventually(t, func() bool { return mock.SentCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, types.StateBroadcasting, node.Status().State)

	require.NoError(t, node.Stop(ctx))
	assert.Equal(t, StateStopped, node.State())
	assert.Equal(t, types.StateStopped, node.Status().State)
	assert.False(t, mock.HasCallbacks())

	assert.NoError(t, node.Stop(ctx))
	assert.ErrorIs(t, node.Start(ctx), ErrNodeClosed)
	assert.NoError(t, node.Close())
	t.Log("✅ 生命周期正确")
}

// TestNode_StartFailure 测试链路初始化失败
func TestNode_StartFailure(t *testing.T) {
	mock := mocks.NewMockLink(types.LocalMAC(8))
	mock.InitFunc = func() error { return assert.AnError }

	node := newTestNode(t, WithLink(mock))
	err := node.Start(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, StateStopped, node.State())
}

// TestNode_Rendezvous 两个节点在共享介质上完成汇合
func TestNode_Rendezvous(t *testing.T) {
	medium := memlink.NewMedium()
	t.Cleanup(func() { _ = medium.Close() })

	a := newTestNode(t, WithConfig(fastConfig()), WithMedium(medium))
	b := newTestNode(t, WithConfig(fastConfig()), WithMedium(medium))
	assert.Equal(t, 2, medium.Links())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))
	require.NoError(t, b.Start(ctx))

	// magic 较大的一端结束单播
	var winner, loser *Node
	select {
	case <-a.Engine().Done():
		winner, loser = a, b
	case <-b.Engine().Done():
		winner, loser = b, a
	case <-ctx.Done():
		t.Fatal("rendezvous did not finish")
	}

	require.NoError(t, winner.Wait(ctx))
	st := winner.Status()
	assert.True(t, st.UnicastActive)
	assert.Equal(t, loser.Link().LocalMAC(), st.Dest)
	assert.Equal(t, uint16(5), st.UnicastSeq)

	require.Eventually(t, func() bool {
		return !loser.Status().BroadcastActive
	}, 2*time.Second, 5*time.Millisecond)
	assert.NotEmpty(t, loser.Engine().Sightings())

	require.NoError(t, a.Stop(ctx))
	require.NoError(t, b.Stop(ctx))
	assert.Equal(t, 0, medium.Links())
	t.Log("✅ 两节点汇合成功")
}

func TestVersionInfo(t *testing.T) {
	defer func(c, d string) { GitCommit, BuildDate = c, d }(GitCommit, BuildDate)

	GitCommit, BuildDate = "", ""
	assert.Equal(t, "rawlink "+Version, VersionInfo())

	GitCommit = "0123456789abcdef"
	BuildDate = "2026-01-01"
	assert.Equal(t, "rawlink "+Version+" (01234567) built 2026-01-01", VersionInfo())
}

func TestNodeState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "unknown", NodeState(9).String())
}
