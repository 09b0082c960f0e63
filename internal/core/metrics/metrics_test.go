package metrics

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
)

// ============================================================================
// RateMeter 测试
// ============================================================================

// TestRateMeter_Window 测试滑动窗口
func TestRateMeter_Window(t *testing.T) {
	mock := clock.NewMock()
	r := NewRateMeter(4*time.Second, mock)

	r.Add(40)
	assert.Equal(t, 10.0, r.Rate())

	mock.Add(time.Second)
	r.Add(40)
	assert.Equal(t, 20.0, r.Rate())

	// 第一个桶滑出窗口
	mock.Add(3 * time.Second)
	assert.Equal(t, 10.0, r.Rate())

	// 整个窗口过期
	mock.Add(10 * time.Second)
	assert.Equal(t, 0.0, r.Rate())
	assert.Equal(t, int64(80), r.Total())

	r.Reset()
	assert.Zero(t, r.Total())

	t.Log("✅ 滑动窗口正确")
}

func TestRateMeter_MinimumWindow(t *testing.T) {
	r := NewRateMeter(0, clock.NewMock())
	r.Add(5)
	assert.Equal(t, 5.0, r.Rate())
}

// ============================================================================
// Prometheus 测试
// ============================================================================

func TestPrometheus_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := DefaultConfig()
	cfg.Clock = clock.NewMock()

	p, err := NewPrometheus(reg, cfg)
	require.NoError(t, err)

	p.FrameSent(types.FrameBroadcast, 10)
	p.FrameSent(types.FrameUnicast, 10)
	p.FrameReceived(types.FrameBroadcast, 12)
	p.FrameInvalid("checksum")
	p.EventDropped()
	p.SendFailed()
	p.StateChanged(types.StateUnicasting)
	p.ConnTableSize(2)

	s := p.Snapshot()
	assert.Equal(t, int64(2), s.FramesSent)
	assert.Equal(t, int64(1), s.FramesReceived)
	assert.Equal(t, int64(1), s.FramesInvalid)
	assert.Equal(t, int64(1), s.EventsDropped)
	assert.Equal(t, int64(1), s.SendFailures)
	assert.Equal(t, int64(2), s.ConnTableSize)
	assert.Equal(t, types.StateUnicasting, s.State)
	assert.Equal(t, int64(20), s.TxBytes)
	assert.Equal(t, int64(12), s.RxBytes)
	assert.Equal(t, 2.0, s.TxRate)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, n := range []string{
		"rawlink_frames_sent_total",
		"rawlink_frames_invalid_total",
		"rawlink_rendezvous_state",
		"rawlink_tx_rate_bytes",
	} {
		assert.True(t, names[n], n)
	}
}

func TestPrometheus_DuplicateRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg, DefaultConfig())
	require.NoError(t, err)

	_, err = NewPrometheus(reg, DefaultConfig())
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	r := Nop()
	r.FrameSent(types.FrameBroadcast, 1)
	r.StateChanged(types.StateStopped)
}

// ============================================================================
// Fx 模块测试
// ============================================================================

// TestModule_Provides 测试模块提供的类型
func TestModule_Provides(t *testing.T) {
	var reporter interfaces.Reporter
	var prom *Prometheus
	var gatherer prometheus.Gatherer

	app := fxtest.New(t,
		Module,
		fx.Populate(&reporter, &prom, &gatherer),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, reporter)
	require.NotNil(t, prom)
	require.NotNil(t, gatherer)
	reporter.FrameSent(types.FrameUnicast, 3)
	assert.Equal(t, int64(1), prom.Snapshot().FramesSent)
}

// TestModule_Disabled 测试关闭指标
func TestModule_Disabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Metrics.Enable = false

	var reporter interfaces.Reporter
	var prom *Prometheus
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module,
		fx.Populate(&reporter, &prom),
	)
	defer app.RequireStart().RequireStop()

	assert.Equal(t, Nop(), reporter)
	assert.Nil(t, prom)
}

func TestModule_Registerer(t *testing.T) {
	reg := prometheus.NewRegistry()

	var prom *Prometheus
	app := fxtest.New(t,
		fx.Provide(func() prometheus.Registerer { return reg }),
		Module,
		fx.Populate(&prom),
	)
	defer app.RequireStart().RequireStop()

	prom.EventDropped()
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
