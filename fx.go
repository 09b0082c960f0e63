package rawlink

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-rawlink/internal/app"
	"github.com/dep2p/go-rawlink/internal/core/conntable"
	"github.com/dep2p/go-rawlink/internal/core/metrics"
	"github.com/dep2p/go-rawlink/internal/core/rendezvous"
	"github.com/dep2p/go-rawlink/internal/debug/introspect"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/lib/log"
)

var fxLogger = log.Logger("rawlink/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. Foundation: Metrics → ConnTable
//  2. Link: 内置链路模块或 WithLink 注入
//  3. Protocol: Rendezvous
//  4. Diagnostics: Introspect（配置了监听地址时）
func buildFxApp(cfg *nodeConfig, node *Node) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 配置与外部依赖注入
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg.config),
	}
	if cfg.medium != nil && cfg.link == nil {
		modules = append(modules, fx.Supply(cfg.medium))
	}
	if cfg.registerer != nil {
		reg := cfg.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 内部模块
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, app.AllModules(cfg.link))

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户自定义选项
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, cfg.fxOptions...)

	// ════════════════════════════════════════════════════════════════════════
	// 5. 组件注入与日志
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		fx.Invoke(injectNodeComponents(node)),
		fx.WithLogger(newFxEventLogger(cfg.fxLogging)),
	)

	fxLogger.Debug("构建 Fx 应用", "modules", len(modules), "custom_link", cfg.link != nil)
	return fx.New(modules...), nil
}

// newFxEventLogger 返回 Fx 事件日志构造函数
func newFxEventLogger(enable bool) func() fxevent.Logger {
	return func() fxevent.Logger {
		if !enable {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}
		z, err := zap.NewDevelopment()
		if err != nil {
			fxLogger.Warn("创建 Fx 日志失败", "err", err)
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}
		return &fxevent.ZapLogger{Logger: z}
	}
}

// nodeInjectParams Node 组件注入参数
type nodeInjectParams struct {
	fx.In

	Engine     *rendezvous.Engine
	Rendezvous interfaces.Rendezvous
	ConnTable  interfaces.ConnTable
	Sessions   *conntable.Sessions
	Link       interfaces.Link
	Reporter   interfaces.Reporter

	Prometheus *metrics.Prometheus `optional:"true"`
	Introspect *introspect.Server  `optional:"true"`
}

// injectNodeComponents 创建 Node 组件注入函数
func injectNodeComponents(node *Node) interface{} {
	return func(params nodeInjectParams) {
		node.engine = params.Engine
		node.rendezvous = params.Rendezvous
		node.connTable = params.ConnTable
		node.sessions = params.Sessions
		node.link = params.Link
		node.reporter = params.Reporter

		node.prometheus = params.Prometheus
		node.introspect = params.Introspect
	}
}
