package types

import "time"

// ============================================================================
//                              帧类型
// ============================================================================

// FrameKind 帧类型
type FrameKind uint8

const (
	// FrameBroadcast 广播帧
	FrameBroadcast FrameKind = 0
	// FrameUnicast 单播帧
	FrameUnicast FrameKind = 1
)

// String 返回帧类型名称
func (k FrameKind) String() string {
	switch k {
	case FrameBroadcast:
		return "broadcast"
	case FrameUnicast:
		return "unicast"
	default:
		return "unknown"
	}
}

// KindFor 根据目的地址确定帧类型
func KindFor(dst MAC) FrameKind {
	if dst.IsBroadcast() {
		return FrameBroadcast
	}
	return FrameUnicast
}

// ============================================================================
//                              汇合状态
// ============================================================================

// RendezvousState 汇合状态
type RendezvousState int

const (
	// StateStopped 未运行或已结束
	StateStopped RendezvousState = iota
	// StateBroadcasting 广播中，尚未收到任何有效广播
	StateBroadcasting
	// StateNegotiating 已收到对端广播，等待决出单播发送方
	StateNegotiating
	// StateUnicasting 本端胜出，正在单播
	StateUnicasting
)

// String 返回状态名称
func (s RendezvousState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateBroadcasting:
		return "broadcasting"
	case StateNegotiating:
		return "negotiating"
	case StateUnicasting:
		return "unicasting"
	default:
		return "unknown"
	}
}

// RendezvousStatus 汇合引擎状态快照
type RendezvousStatus struct {
	// RunID 本轮标识，未运行时为空
	RunID string

	// State 当前状态
	State RendezvousState

	// Magic 本轮随机数
	Magic uint32

	// LocalState 帧中携带的本端状态位（0 或 1）
	LocalState uint8

	// Dest 当前发送目标
	Dest MAC

	// BroadcastActive 是否仍在广播
	BroadcastActive bool

	// UnicastActive 是否已进入单播
	UnicastActive bool

	// Remaining 剩余单播发送次数
	Remaining int

	// BroadcastSeq 下一个广播序号
	BroadcastSeq uint16

	// UnicastSeq 下一个单播序号
	UnicastSeq uint16
}

// PeerSighting 一次对端观察记录
type PeerSighting struct {
	MAC       MAC
	Kind      FrameKind
	Seq       uint16
	Magic     uint32
	State     uint8
	Frames    int
	FirstSeen time.Time
	LastSeen  time.Time
}
