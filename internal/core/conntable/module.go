package conntable

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-rawlink/pkg/interfaces"
)

// Result Fx 模块输出
type Result struct {
	fx.Out

	Table     *Table
	ConnTable interfaces.ConnTable
	Sessions  *Sessions
}

// tableInput 构造参数
type tableInput struct {
	fx.In

	Config   Config
	Reporter interfaces.Reporter `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("conntable",
		fx.Provide(
			ConfigFromUnified,
			ProvideTable,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideTable 提供连接表
func ProvideTable(input tableInput) (Result, error) {
	var opts []Option
	if input.Reporter != nil {
		opts = append(opts, WithReporter(input.Reporter))
	}

	t, err := New(input.Config, opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Table:     t,
		ConnTable: t,
		Sessions:  NewSessions(t, 0),
	}, nil
}

type lifecycleInput struct {
	fx.In
	LC    fx.Lifecycle
	Table *Table
}

// registerLifecycle 停止时记录残留条目
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if n := input.Table.Len(); n > 0 {
				log.Debug("连接表停止时仍有条目", "count", n)
			}
			return nil
		},
	})
}
