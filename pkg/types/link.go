package types

// ============================================================================
//                              链路层枚举
// ============================================================================

// SendStatus 发送完成状态
type SendStatus uint8

const (
	// SendSuccess 发送成功（广播总是成功；单播表示对端已接收）
	SendSuccess SendStatus = iota
	// SendFail 发送失败
	SendFail
)

// String 返回状态名称
func (s SendStatus) String() string {
	switch s {
	case SendSuccess:
		return "success"
	case SendFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Iface 对端所在的本地接口
type Iface uint8

const (
	// IfaceSTA station 接口
	IfaceSTA Iface = iota
	// IfaceAP softAP 接口
	IfaceAP
)

// String 返回接口名称
func (i Iface) String() string {
	switch i {
	case IfaceSTA:
		return "sta"
	case IfaceAP:
		return "ap"
	default:
		return "unknown"
	}
}

// ParseIface 解析接口名称，未知名称返回 false
func ParseIface(s string) (Iface, bool) {
	switch s {
	case "sta", "":
		return IfaceSTA, true
	case "ap":
		return IfaceAP, true
	default:
		return IfaceSTA, false
	}
}
