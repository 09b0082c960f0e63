package conntable

import (
	"fmt"
	"sync"

	"github.com/dep2p/go-rawlink/internal/util/logger"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
)

var log = logger.Logger("conntable")

// slot 连接表槽位
type slot struct {
	used      bool
	addr      types.MAC
	data      []byte
	connID    uint16
	hasConnID bool
}

// occupied 槽位是否是有效条目
func (s *slot) occupied() bool {
	return s.used && !s.addr.IsSentinel()
}

func (s *slot) entry(h types.SlotHandle) types.ConnEntry {
	e := types.ConnEntry{
		Handle:    h,
		Addr:      s.addr,
		ConnID:    s.connID,
		HasConnID: s.hasConnID,
	}
	if s.data != nil {
		e.Data = make([]byte, len(s.data))
		copy(e.Data, s.data)
	}
	return e
}

// ============================================================================
//                              Table
// ============================================================================

// Option 连接表选项
type Option func(*Table)

// WithReporter 设置占用数上报
func WithReporter(r interfaces.Reporter) Option {
	return func(t *Table) {
		t.reporter = r
	}
}

// Table 固定容量连接表
type Table struct {
	mu         sync.RWMutex
	slots      []slot
	maxDataLen int
	reporter   interfaces.Reporter
}

// New 创建连接表
func New(cfg Config, opts ...Option) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Table{
		slots:      make([]slot, cfg.Capacity),
		maxDataLen: cfg.MaxDataLen,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

var _ interfaces.ConnTable = (*Table)(nil)

// FindByAddr 按地址查找，哨兵地址总是返回 false
func (t *Table) FindByAddr(addr types.MAC) (types.ConnEntry, bool) {
	if addr.IsSentinel() {
		return types.ConnEntry{}, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if i := t.indexOf(addr); i >= 0 {
		return t.slots[i].entry(types.SlotHandle(i)), true
	}
	return types.ConnEntry{}, false
}

// FindByConnID 按连接 ID 查找
//
// 只匹配已绑定连接的条目；仅登记了地址的条目没有连接 ID。
func (t *Table) FindByConnID(id uint16) (types.ConnEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.slots {
		s := &t.slots[i]
		if s.occupied() && s.hasConnID && s.connID == id {
			return s.entry(types.SlotHandle(i)), true
		}
	}
	return types.ConnEntry{}, false
}

// Allocate 为 addr 分配条目
//
// 地址已存在时返回已有条目，不占用新槽位。dataLen > 0 时分配
// 一块清零的关联数据；超过上限时返回错误且槽位保持空闲。
func (t *Table) Allocate(addr types.MAC, dataLen int) (types.ConnEntry, error) {
	if addr.IsSentinel() {
		return types.ConnEntry{}, fmt.Errorf("%w: %s", ErrSentinelAddr, addr)
	}
	if dataLen < 0 {
		return types.ConnEntry{}, fmt.Errorf("%w: %d", ErrInvalidDataLen, dataLen)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if i := t.indexOf(addr); i >= 0 {
		log.Warn("条目已存在", "addr", addr, "handle", i)
		return t.slots[i].entry(types.SlotHandle(i)), nil
	}

	// 地址为哨兵值的槽位视为空闲，即使 used 被置位
	free := -1
	for i := range t.slots {
		if !t.slots[i].occupied() {
			free = i
			break
		}
	}
	if free < 0 {
		return types.ConnEntry{}, fmt.Errorf("%w: capacity %d", ErrTableFull, len(t.slots))
	}

	if t.maxDataLen > 0 && dataLen > t.maxDataLen {
		return types.ConnEntry{}, fmt.Errorf("%w: %d > %d", ErrDataTooLarge, dataLen, t.maxDataLen)
	}

	s := &t.slots[free]
	*s = slot{used: true, addr: addr}
	if dataLen > 0 {
		s.data = make([]byte, dataLen)
	}

	log.Debug("分配条目", "addr", addr, "handle", free, "dataLen", dataLen)
	t.reportSize()
	return s.entry(types.SlotHandle(free)), nil
}

// Delete 删除条目并清空槽位
func (t *Table) Delete(addr types.MAC) error {
	if addr.IsSentinel() {
		return fmt.Errorf("%w: %s", ErrSentinelAddr, addr)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(addr)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, addr)
	}

	t.slots[i] = slot{}
	log.Debug("删除条目", "addr", addr, "handle", i)
	t.reportSize()
	return nil
}

// DeleteUnbound 仅在条目未绑定连接时删除
//
// 条目已被会话层绑定连接 ID 时保留并返回 false。
func (t *Table) DeleteUnbound(addr types.MAC) (bool, error) {
	if addr.IsSentinel() {
		return false, fmt.Errorf("%w: %s", ErrSentinelAddr, addr)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(addr)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	if t.slots[i].hasConnID {
		return false, nil
	}

	t.slots[i] = slot{}
	log.Debug("删除条目", "addr", addr, "handle", i)
	t.reportSize()
	return true, nil
}

// ForEach 按表顺序访问每个有效条目
//
// 遍历基于调用时的快照，visit 可以安全地调用表的其他方法。
// 没有提前退出。
func (t *Table) ForEach(visit func(entry types.ConnEntry)) {
	t.mu.RLock()
	entries := make([]types.ConnEntry, 0, len(t.slots))
	for i := range t.slots {
		if t.slots[i].occupied() {
			entries = append(entries, t.slots[i].entry(types.SlotHandle(i)))
		}
	}
	t.mu.RUnlock()

	for _, e := range entries {
		visit(e)
	}
}

// Update 在锁内修改条目
//
// fn 拿到的是条目副本，可以修改 ConnID、HasConnID 与 Data；对 Handle 与
// Addr 的修改被忽略。新 Data 超过上限时返回错误，槽位保持不变。
func (t *Table) Update(handle types.SlotHandle, fn func(entry *types.ConnEntry)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if handle < 0 || int(handle) >= len(t.slots) || !t.slots[handle].occupied() {
		return fmt.Errorf("%w: handle %d", ErrNotFound, handle)
	}

	s := &t.slots[handle]
	e := s.entry(handle)
	fn(&e)

	if t.maxDataLen > 0 && len(e.Data) > t.maxDataLen {
		return fmt.Errorf("%w: %d > %d", ErrDataTooLarge, len(e.Data), t.maxDataLen)
	}
	s.connID = e.ConnID
	s.hasConnID = e.HasConnID
	s.data = nil
	if e.Data != nil {
		s.data = make([]byte, len(e.Data))
		copy(s.data, e.Data)
	}
	return nil
}

// Len 有效条目数
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lenLocked()
}

// Cap 容量
func (t *Table) Cap() int {
	return len(t.slots)
}

// indexOf 返回 addr 所在槽位下标，不存在时返回 -1（调用方持锁）
func (t *Table) indexOf(addr types.MAC) int {
	for i := range t.slots {
		if t.slots[i].occupied() && t.slots[i].addr == addr {
			return i
		}
	}
	return -1
}

func (t *Table) lenLocked() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].occupied() {
			n++
		}
	}
	return n
}

func (t *Table) reportSize() {
	if t.reporter != nil {
		t.reporter.ConnTableSize(t.lenLocked())
	}
}
