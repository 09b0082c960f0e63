package types

// ============================================================================
//                              ConnEntry - 连接表条目
// ============================================================================

// SlotHandle 连接表槽位句柄（槽位下标），在条目被删除前保持稳定
type SlotHandle int

// InvalidHandle 无效句柄
const InvalidHandle SlotHandle = -1

// ConnEntry 连接表条目
type ConnEntry struct {
	// Handle 所在槽位
	Handle SlotHandle

	// Addr 对端地址
	Addr MAC

	// Data 调用方定义的会话数据
	Data []byte

	// ConnID 连接 ID，仅在 HasConnID 为 true 时有意义
	ConnID uint16

	// HasConnID 条目是否绑定了连接（连接 ID 0 也是有效句柄）
	HasConnID bool
}

// Clone 深拷贝条目
func (e ConnEntry) Clone() ConnEntry {
	c := e
	if e.Data != nil {
		c.Data = make([]byte, len(e.Data))
		copy(c.Data, e.Data)
	}
	return c
}
