package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
)

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config         `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Result Metrics 输出
type Result struct {
	fx.Out

	Reporter   interfaces.Reporter
	Prometheus *Prometheus
	Gatherer   prometheus.Gatherer
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(NewReporterFromParams),
)

// NewReporterFromParams 按配置创建 Reporter
//
// 未注入 Registerer 时使用私有 Registry，不污染全局注册表。
// Registerer 同时实现 Gatherer 时一并提供，供 /metrics 使用。
func NewReporterFromParams(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		return Result{Reporter: Nop()}, nil
	}

	reg := p.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m, err := NewPrometheus(reg, cfg)
	if err != nil {
		return Result{}, err
	}

	res := Result{Reporter: m, Prometheus: m}
	if g, ok := reg.(prometheus.Gatherer); ok {
		res.Gatherer = g
	}
	return res, nil
}
