package introspect

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
)

// Module 返回自省服务 Fx 模块
func Module() fx.Option {
	return fx.Module("introspect",
		fx.Provide(NewFromParams),
		fx.Invoke(registerLifecycle),
	)
}

// Params 自省服务依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config        `optional:"true"`
	Link       interfaces.Link       `optional:"true"`
	Rendezvous interfaces.Rendezvous `optional:"true"`
	ConnTable  interfaces.ConnTable  `optional:"true"`
	Gatherer   prometheus.Gatherer   `optional:"true"`
}

// Output 自省服务输出
type Output struct {
	fx.Out

	Server *Server
}

// ConfigFromUnified 从统一配置创建服务配置，未配置监听地址时返回 nil
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil || cfg.Metrics.ListenAddr == "" {
		return nil
	}
	return &Config{Addr: cfg.Metrics.ListenAddr}
}

// NewFromParams 从参数创建自省服务，禁用时提供 nil
func NewFromParams(p Params) Output {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if cfg == nil {
		return Output{}
	}

	cfg.Link = p.Link
	cfg.Rendezvous = p.Rendezvous
	cfg.ConnTable = p.ConnTable
	cfg.Gatherer = p.Gatherer

	return Output{Server: New(*cfg)}
}

func registerLifecycle(lc fx.Lifecycle, server *Server) {
	if server == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return server.Stop()
		},
	})
}
