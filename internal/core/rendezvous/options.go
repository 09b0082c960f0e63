package rendezvous

import (
	"math/rand/v2"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-rawlink/pkg/interfaces"
)

// RandSource 随机数来源
//
// *rand.Rand（math/rand/v2）满足该接口。
type RandSource interface {
	Uint32() uint32
}

// globalRand 使用 math/rand/v2 的全局源
type globalRand struct{}

func (globalRand) Uint32() uint32 { return rand.Uint32() }

// Option 引擎选项
type Option func(*Engine)

// WithClock 设置时钟（测试中使用 clock.NewMock）
func WithClock(clk clock.Clock) Option {
	return func(e *Engine) {
		if clk != nil {
			e.clock = clk
		}
	}
}

// WithRand 设置随机数来源
func WithRand(r RandSource) Option {
	return func(e *Engine) {
		if r != nil {
			e.rand = r
		}
	}
}

// WithReporter 设置指标上报器
func WithReporter(r interfaces.Reporter) Option {
	return func(e *Engine) {
		if r != nil {
			e.reporter = r
		}
	}
}

// WithConnTable 设置连接表，配合 Config.TrackPeers 使用
func WithConnTable(t interfaces.ConnTable) Option {
	return func(e *Engine) {
		e.table = t
	}
}
