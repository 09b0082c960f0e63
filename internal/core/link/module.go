package link

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-rawlink/internal/core/link/memlink"
	"github.com/dep2p/go-rawlink/internal/core/link/udplink"
	"github.com/dep2p/go-rawlink/internal/util/logger"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
)

var log = logger.Logger("link")

// Module 返回 Fx 模块
//
// 按 Config.Driver 构造链路并以 interfaces.Link 注入。mem 驱动下
// 若外部提供了 *memlink.Medium 则挂接到该介质（仿真多节点共用），
// 否则创建私有介质并在停止时关闭。
func Module() fx.Option {
	return fx.Module("link",
		fx.Provide(
			ConfigFromUnified,
			ProvideLink,
		),
	)
}

// Params 链路依赖参数
type Params struct {
	fx.In

	LC     fx.Lifecycle
	Config Config
	Medium *memlink.Medium `optional:"true"`
}

// ProvideLink 提供链路
func ProvideLink(p Params) (interfaces.Link, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}

	switch p.Config.Driver {
	case DriverUDP:
		l, err := udplink.New(p.Config.UDP)
		if err != nil {
			return nil, err
		}
		p.LC.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return l.Deinit()
			},
		})
		log.Info("使用组播链路", "group", p.Config.UDP.Group, "mac", l.LocalMAC())
		return l, nil

	default:
		return provideMemLink(p)
	}
}

func provideMemLink(p Params) (interfaces.Link, error) {
	medium, owned := p.Medium, false
	if medium == nil {
		medium = memlink.NewMedium(
			memlink.WithLatency(p.Config.MemLatency),
			memlink.WithLossRate(p.Config.MemLossRate),
			memlink.WithMaxPeers(p.Config.MaxPeers),
		)
		owned = true
	}

	l, err := medium.Attach(p.Config.localMAC())
	if err != nil {
		return nil, err
	}

	p.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if owned {
				return medium.Close()
			}
			return medium.Detach(l.LocalMAC())
		},
	})
	log.Info("使用模拟介质链路", "mac", l.LocalMAC(), "shared", !owned)
	return l, nil
}
