// Package app 提供模块集合清单
//
// modulesets.go 集中维护"哪些模块属于哪一层"，是根包 fx 组装的唯一模块来源。
package app

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-rawlink/internal/core/conntable"
	"github.com/dep2p/go-rawlink/internal/core/link"
	"github.com/dep2p/go-rawlink/internal/core/metrics"
	"github.com/dep2p/go-rawlink/internal/core/rendezvous"
	"github.com/dep2p/go-rawlink/internal/debug/introspect"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
)

// ============================================================================
//                              模块集合
// ============================================================================

// FoundationModules 基础层模块组合 (Tier 1)
//
// 指标与连接表不依赖链路，始终加载。
func FoundationModules() fx.Option {
	return fx.Options(
		metrics.Module,
		conntable.Module(),
	)
}

// LinkModules 链路层模块组合 (Tier 2)
//
// custom 非空时直接注入调用方提供的链路，不加载链路模块。
func LinkModules(custom interfaces.Link) fx.Option {
	if custom != nil {
		return fx.Provide(func() interfaces.Link { return custom })
	}
	return link.Module()
}

// ProtocolModules 协议层模块组合 (Tier 3)
func ProtocolModules() fx.Option {
	return rendezvous.Module()
}

// DiagnosticsModules 诊断模块组合 (Tier 4)
//
// 未配置 metrics.listen_addr 时自省服务不启动。
func DiagnosticsModules() fx.Option {
	return introspect.Module()
}

// AllModules 按层次返回全部模块
func AllModules(custom interfaces.Link) fx.Option {
	return fx.Options(
		FoundationModules(),
		LinkModules(custom),
		ProtocolModules(),
		DiagnosticsModules(),
	)
}
