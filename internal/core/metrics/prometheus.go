package metrics

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
)

// ============================================================================
//                              配置
// ============================================================================

// Config 指标配置
type Config struct {
	// Enabled 是否启用
	Enabled bool

	// Namespace 指标命名空间
	Namespace string

	// RateWindow 速率窗口
	RateWindow time.Duration

	// Clock 速率计算使用的时钟，nil 表示真实时钟
	Clock clock.Clock
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Namespace:  "rawlink",
		RateWindow: 10 * time.Second,
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:    cfg.Metrics.Enable,
		Namespace:  cfg.Metrics.Namespace,
		RateWindow: cfg.Metrics.RateWindow.Duration(),
	}
}

// ============================================================================
//                              Snapshot
// ============================================================================

// Snapshot 指标快照
type Snapshot struct {
	FramesSent     int64
	FramesReceived int64
	FramesInvalid  int64
	EventsDropped  int64
	SendFailures   int64
	ConnTableSize  int64
	State          types.RendezvousState
	TxBytes        int64
	RxBytes        int64
	TxRate         float64
	RxRate         float64
}

// ============================================================================
//                              Prometheus
// ============================================================================

// Prometheus 基于 client_golang 的 Reporter
type Prometheus struct {
	framesSent     *prometheus.CounterVec
	framesReceived *prometheus.CounterVec
	bytesSent      prometheus.Counter
	bytesReceived  prometheus.Counter
	framesInvalid  *prometheus.CounterVec
	eventsDropped  prometheus.Counter
	sendFailures   prometheus.Counter
	transitions    *prometheus.CounterVec
	state          prometheus.Gauge
	tableSize      prometheus.Gauge

	tx *RateMeter
	rx *RateMeter

	nSent, nRecv, nInvalid, nDropped, nFailed, nTable, nState atomic.Int64
}

// NewPrometheus 创建并注册指标
func NewPrometheus(reg prometheus.Registerer, cfg Config) (*Prometheus, error) {
	ns := cfg.Namespace
	p := &Prometheus{
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "frames_sent_total", Help: "Frames handed to the link, by kind.",
		}, []string{"kind"}),
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "frames_received_total", Help: "Valid frames received, by kind.",
		}, []string{"kind"}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "tx_bytes_total", Help: "Bytes handed to the link.",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "rx_bytes_total", Help: "Bytes of valid frames received.",
		}),
		framesInvalid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "frames_invalid_total", Help: "Frames dropped by validation, by reason.",
		}, []string{"reason"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "events_dropped_total", Help: "Link events dropped on a full queue.",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "send_failures_total", Help: "Link send errors.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "state_transitions_total", Help: "Rendezvous state transitions, by target state.",
		}, []string{"state"}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "rendezvous_state", Help: "Current rendezvous state (0 stopped .. 3 unicasting).",
		}),
		tableSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "conntable_entries", Help: "Occupied connection table slots.",
		}),
		tx: NewRateMeter(cfg.RateWindow, cfg.Clock),
		rx: NewRateMeter(cfg.RateWindow, cfg.Clock),
	}

	txRate := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: ns, Name: "tx_rate_bytes", Help: "Transmit rate over the rate window, bytes/s.",
	}, p.tx.Rate)
	rxRate := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: ns, Name: "rx_rate_bytes", Help: "Receive rate over the rate window, bytes/s.",
	}, p.rx.Rate)

	if reg != nil {
		var err error
		for _, c := range []prometheus.Collector{
			p.framesSent, p.framesReceived, p.bytesSent, p.bytesReceived,
			p.framesInvalid, p.eventsDropped, p.sendFailures, p.transitions,
			p.state, p.tableSize, txRate, rxRate,
		} {
			err = multierr.Append(err, reg.Register(c))
		}
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

var _ interfaces.Reporter = (*Prometheus)(nil)

// FrameSent 发出一帧
func (p *Prometheus) FrameSent(kind types.FrameKind, size int) {
	p.framesSent.WithLabelValues(kind.String()).Inc()
	p.bytesSent.Add(float64(size))
	p.tx.Add(int64(size))
	p.nSent.Add(1)
}

// FrameReceived 收到有效帧
func (p *Prometheus) FrameReceived(kind types.FrameKind, size int) {
	p.framesReceived.WithLabelValues(kind.String()).Inc()
	p.bytesReceived.Add(float64(size))
	p.rx.Add(int64(size))
	p.nRecv.Add(1)
}

// FrameInvalid 丢弃无效帧
func (p *Prometheus) FrameInvalid(reason string) {
	p.framesInvalid.WithLabelValues(reason).Inc()
	p.nInvalid.Add(1)
}

// EventDropped 队列满丢弃事件
func (p *Prometheus) EventDropped() {
	p.eventsDropped.Inc()
	p.nDropped.Add(1)
}

// SendFailed 链路发送失败
func (p *Prometheus) SendFailed() {
	p.sendFailures.Inc()
	p.nFailed.Add(1)
}

// StateChanged 状态变化
func (p *Prometheus) StateChanged(state types.RendezvousState) {
	p.transitions.WithLabelValues(state.String()).Inc()
	p.state.Set(float64(state))
	p.nState.Store(int64(state))
}

// ConnTableSize 连接表占用
func (p *Prometheus) ConnTableSize(n int) {
	p.tableSize.Set(float64(n))
	p.nTable.Store(int64(n))
}

// Snapshot 返回当前快照
func (p *Prometheus) Snapshot() Snapshot {
	return Snapshot{
		FramesSent:     p.nSent.Load(),
		FramesReceived: p.nRecv.Load(),
		FramesInvalid:  p.nInvalid.Load(),
		EventsDropped:  p.nDropped.Load(),
		SendFailures:   p.nFailed.Load(),
		ConnTableSize:  p.nTable.Load(),
		State:          types.RendezvousState(p.nState.Load()),
		TxBytes:        p.tx.Total(),
		RxBytes:        p.rx.Total(),
		TxRate:         p.tx.Rate(),
		RxRate:         p.rx.Rate(),
	}
}

// ============================================================================
//                              Nop
// ============================================================================

type nop struct{}

// Nop 返回丢弃所有指标的 Reporter
func Nop() interfaces.Reporter {
	return nop{}
}

func (nop) FrameSent(types.FrameKind, int)     {}
func (nop) FrameReceived(types.FrameKind, int) {}
func (nop) FrameInvalid(string)                {}
func (nop) EventDropped()                      {}
func (nop) SendFailed()                        {}
func (nop) StateChanged(types.RendezvousState) {}
func (nop) ConnTableSize(int)                  {}
