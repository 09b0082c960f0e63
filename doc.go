// Package rawlink 提供基于原始帧链路的双机汇合库
//
// 两台设备在同一信道上广播携带随机数（magic）的帧，收到对方广播后
// 比较随机数：较大的一方（相等时双方都）转为单播，向对方定向发送固定
// 次数的帧；较小的一方停止单播竞争，仅继续接收。
//
// # 快速开始
//
//	import "github.com/dep2p/go-rawlink"
//
//	node, err := rawlink.New(
//	    rawlink.WithPreset("fast"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	if err := node.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	_ = node.Wait(ctx)
//	fmt.Println(node.Rendezvous().Status())
//
// # 组件层次
//
//	┌──────────────────────────────────────────────┐
//	│  入口层      Node (rawlink.New)               │
//	├──────────────────────────────────────────────┤
//	│  协议层      rendezvous.Engine                │
//	├──────────────────────────────────────────────┤
//	│  链路层      udplink / memlink / 自定义 Link   │
//	├──────────────────────────────────────────────┤
//	│  基础层      conntable · metrics · introspect │
//	└──────────────────────────────────────────────┘
//
// 内部模块通过 Fx 组装，模块清单见 internal/app。
//
// # 文件组织
//
//   - doc.go: 包文档
//   - version.go: 版本信息
//   - errors.go: 错误定义
//   - options.go: 节点选项
//   - fx.go: Fx 应用组装
//   - node.go: Node 生命周期与访问器
package rawlink
