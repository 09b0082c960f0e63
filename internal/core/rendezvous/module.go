package rendezvous

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-rawlink/pkg/interfaces"
)

// Params 引擎依赖参数
type Params struct {
	fx.In

	Link      interfaces.Link
	Config    Config
	Reporter  interfaces.Reporter  `optional:"true"`
	ConnTable interfaces.ConnTable `optional:"true"`
	Clock     clock.Clock          `optional:"true"`
}

// Result 引擎输出
type Result struct {
	fx.Out

	Engine     *Engine
	Rendezvous interfaces.Rendezvous
}

// Module 返回 Fx 模块
//
// 模块只负责构造与停止；一轮汇合何时开始由调用方决定。
func Module() fx.Option {
	return fx.Module("rendezvous",
		fx.Provide(
			ConfigFromUnified,
			ProvideEngine,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideEngine 提供汇合引擎
func ProvideEngine(p Params) (Result, error) {
	opts := []Option{
		WithReporter(p.Reporter),
		WithClock(p.Clock),
	}
	if p.ConnTable != nil {
		opts = append(opts, WithConnTable(p.ConnTable))
	}

	e, err := New(p.Link, p.Config, opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{Engine: e, Rendezvous: e}, nil
}

type lifecycleInput struct {
	fx.In

	LC     fx.Lifecycle
	Engine *Engine
}

// registerLifecycle 停止时结束当前一轮并等待释放链路
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if !input.Engine.Running() {
				return nil
			}
			if err := input.Engine.Stop(); err != nil {
				return err
			}
			if err := input.Engine.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return err
				}
				log.Debug("汇合以错误结束", "err", err)
			}
			return nil
		},
	})
}
