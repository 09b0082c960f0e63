// Package interfaces 定义 go-rawlink 公共接口
//
// 本文件定义连接表接口，对应 internal/core/conntable/ 实现。
package interfaces

import "github.com/dep2p/go-rawlink/pkg/types"

// ConnTable 固定容量的连接表
//
// 以 6 字节地址为键；哨兵地址（全 0、全 0xFF）永远不是有效条目。
// 所有方法并发安全，返回的条目是副本。
type ConnTable interface {
	// FindByAddr 按地址查找
	FindByAddr(addr types.MAC) (types.ConnEntry, bool)

	// FindByConnID 按连接 ID 查找，只匹配已绑定连接的条目
	FindByConnID(id uint16) (types.ConnEntry, bool)

	// Allocate 分配条目；地址已存在时返回已有条目
	Allocate(addr types.MAC, dataLen int) (types.ConnEntry, error)

	// Delete 删除条目并释放其关联数据
	Delete(addr types.MAC) error

	// DeleteUnbound 仅在条目未绑定连接时删除，返回是否已删除
	//
	// 用于只登记地址的使用方释放条目，不会破坏已建立的会话。
	DeleteUnbound(addr types.MAC) (bool, error)

	// ForEach 按表顺序访问每个已占用条目
	ForEach(visit func(entry types.ConnEntry))

	// Update 在锁内修改条目的 ConnID、HasConnID 与 Data
	Update(handle types.SlotHandle, fn func(entry *types.ConnEntry)) error

	// Len 已占用条目数
	Len() int

	// Cap 容量
	Cap() int
}
