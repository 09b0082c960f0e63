// Package interfaces 定义 go-rawlink 公共接口
//
// 本文件定义指标上报接口，对应 internal/core/metrics/ 实现。
package interfaces

import "github.com/dep2p/go-rawlink/pkg/types"

// Reporter 指标上报
//
// 所有方法必须并发安全且不阻塞。
type Reporter interface {
	// FrameSent 发出一帧
	FrameSent(kind types.FrameKind, size int)

	// FrameReceived 收到一帧有效帧
	FrameReceived(kind types.FrameKind, size int)

	// FrameInvalid 丢弃一帧无效帧
	FrameInvalid(reason string)

	// EventDropped 事件队列满导致丢弃
	EventDropped()

	// SendFailed 链路发送失败
	SendFailed()

	// StateChanged 汇合状态变化
	StateChanged(state types.RendezvousState)

	// ConnTableSize 连接表占用数
	ConnTableSize(n int)
}
