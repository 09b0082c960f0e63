package conntable

import (
	"fmt"

	"github.com/dep2p/go-rawlink/pkg/types"
)

// Sessions 把连接建立/断开事件映射到连接表
//
// 连接建立时按地址分配条目并绑定连接 ID；断开时按连接 ID 删除。
// 地址已被汇合引擎登记时复用该条目，绑定后引擎不再释放它。
type Sessions struct {
	table   *Table
	dataLen int
}

// NewSessions 创建会话跟踪，dataLen 是每个会话关联数据长度
func NewSessions(table *Table, dataLen int) *Sessions {
	return &Sessions{table: table, dataLen: dataLen}
}

// OnConnected 连接建立
func (s *Sessions) OnConnected(addr types.MAC, connID uint16) (types.ConnEntry, error) {
	e, err := s.table.Allocate(addr, s.dataLen)
	if err != nil {
		return types.ConnEntry{}, fmt.Errorf("session %s: %w", addr, err)
	}

	err = s.table.Update(e.Handle, func(entry *types.ConnEntry) {
		entry.ConnID = connID
		entry.HasConnID = true
	})
	if err != nil {
		return types.ConnEntry{}, err
	}
	e.ConnID = connID
	e.HasConnID = true

	log.Info("会话建立", "addr", addr, "connID", connID, "handle", e.Handle)
	return e, nil
}

// OnDisconnected 连接断开
func (s *Sessions) OnDisconnected(connID uint16) error {
	e, ok := s.table.FindByConnID(connID)
	if !ok {
		return fmt.Errorf("%w: conn id %d", ErrNotFound, connID)
	}
	if err := s.table.Delete(e.Addr); err != nil {
		return err
	}

	log.Info("会话断开", "addr", e.Addr, "connID", connID)
	return nil
}

// Lookup 按连接 ID 查找会话
func (s *Sessions) Lookup(connID uint16) (types.ConnEntry, bool) {
	return s.table.FindByConnID(connID)
}
