package conntable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-rawlink/pkg/types"
)

func newTable(t *testing.T, capacity int) *Table {
	t.Helper()
	tbl, err := New(Config{Capacity: capacity, MaxDataLen: 64})
	require.NoError(t, err)
	return tbl
}

func addr(n byte) types.MAC {
	return types.MAC{0x02, 0, 0, 0, 0, n}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Capacity: 0})
	assert.Error(t, err)
}

// TestTable_AllocateFind 测试分配与查找
func TestTable_AllocateFind(t *testing.T) {
	tbl := newTable(t, 4)

	e, err := tbl.Allocate(addr(1), 8)
	require.NoError(t, err)
	assert.Equal(t, types.SlotHandle(0), e.Handle)
	assert.Equal(t, make([]byte, 8), e.Data)

	got, ok := tbl.FindByAddr(addr(1))
	require.True(t, ok)
	assert.Equal(t, e, got)

	_, ok = tbl.FindByAddr(addr(2))
	assert.False(t, ok)

	_, ok = tbl.FindByConnID(0)
	assert.False(t, ok, "unbound entry has no connection id")

	require.NoError(t, tbl.Update(e.Handle, func(entry *types.ConnEntry) {
		entry.ConnID = 7
		entry.HasConnID = true
		entry.Data[0] = 0xAA
		entry.Addr = addr(9)
	}))

	got, ok = tbl.FindByConnID(7)
	require.True(t, ok)
	assert.Equal(t, addr(1), got.Addr, "address changes are ignored")
	assert.True(t, got.HasConnID)
	assert.Equal(t, byte(0xAA), got.Data[0])

	_, ok = tbl.FindByConnID(8)
	assert.False(t, ok)

	t.Log("✅ 分配与查找正确")
}

// TestTable_AllocateIdempotent 测试重复分配返回同一条目
func TestTable_AllocateIdempotent(t *testing.T) {
	tbl := newTable(t, 2)

	first, err := tbl.Allocate(addr(1), 4)
	require.NoError(t, err)
	second, err := tbl.Allocate(addr(1), 4)
	require.NoError(t, err)

	assert.Equal(t, first.Handle, second.Handle)
	assert.Equal(t, 1, tbl.Len())

	_, err = tbl.Allocate(addr(2), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}

// TestTable_CapacityAndReuse 测试容量耗尽后删除再分配复用空出的槽位
func TestTable_CapacityAndReuse(t *testing.T) {
	tbl := newTable(t, 3)

	for i := byte(1); i <= 3; i++ {
		_, err := tbl.Allocate(addr(i), 0)
		require.NoError(t, err)
	}

	_, err := tbl.Allocate(addr(4), 0)
	assert.ErrorIs(t, err, ErrTableFull)

	require.NoError(t, tbl.Delete(addr(2)))
	e, err := tbl.Allocate(addr(4), 0)
	require.NoError(t, err)
	assert.Equal(t, types.SlotHandle(1), e.Handle)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, 3, tbl.Cap())

	t.Log("✅ 容量耗尽与槽位复用正确")
}

// TestTable_Sentinels 测试哨兵地址
func TestTable_Sentinels(t *testing.T) {
	tbl := newTable(t, 2)

	for _, mac := range []types.MAC{types.ZeroMAC, types.BroadcastMAC} {
		_, err := tbl.Allocate(mac, 0)
		assert.ErrorIs(t, err, ErrSentinelAddr)
		assert.ErrorIs(t, tbl.Delete(mac), ErrSentinelAddr)
		_, ok := tbl.FindByAddr(mac)
		assert.False(t, ok)
	}
	assert.Zero(t, tbl.Len())
}

// TestTable_CorruptedSentinelSlot 测试被直接写成哨兵地址的槽位不可见
func TestTable_CorruptedSentinelSlot(t *testing.T) {
	tbl := newTable(t, 3)
	_, err := tbl.Allocate(addr(1), 0)
	require.NoError(t, err)

	tbl.slots[1] = slot{used: true, addr: types.BroadcastMAC, connID: 5}
	tbl.slots[2] = slot{used: true, addr: types.ZeroMAC, connID: 6}

	_, ok := tbl.FindByAddr(types.BroadcastMAC)
	assert.False(t, ok)
	_, ok = tbl.FindByConnID(5)
	assert.False(t, ok)
	_, ok = tbl.FindByConnID(6)
	assert.False(t, ok)

	var visited []types.MAC
	tbl.ForEach(func(e types.ConnEntry) { visited = append(visited, e.Addr) })
	assert.Equal(t, []types.MAC{addr(1)}, visited)
	assert.Equal(t, 1, tbl.Len())

	assert.ErrorIs(t, tbl.Update(1, func(*types.ConnEntry) {}), ErrNotFound)

	// 哨兵槽位可以被重新分配，且不残留旧的连接 ID
	e, err := tbl.Allocate(addr(2), 0)
	require.NoError(t, err)
	assert.Equal(t, types.SlotHandle(1), e.Handle)
	assert.False(t, e.HasConnID)
	e, err = tbl.Allocate(addr(3), 0)
	require.NoError(t, err)
	assert.Equal(t, types.SlotHandle(2), e.Handle)
	assert.Equal(t, 3, tbl.Len())

	_, err = tbl.Allocate(addr(4), 0)
	assert.ErrorIs(t, err, ErrTableFull)
	t.Log("✅ 哨兵槽位视为空闲")
}

// TestTable_DataLimit 测试数据上限，失败不占用槽位
func TestTable_DataLimit(t *testing.T) {
	tbl := newTable(t, 1)

	_, err := tbl.Allocate(addr(1), 65)
	assert.ErrorIs(t, err, ErrDataTooLarge)
	assert.Zero(t, tbl.Len())

	_, err = tbl.Allocate(addr(1), -1)
	assert.ErrorIs(t, err, ErrInvalidDataLen)

	e, err := tbl.Allocate(addr(1), 64)
	require.NoError(t, err)

	err = tbl.Update(e.Handle, func(entry *types.ConnEntry) {
		entry.Data[0] = 0xEE
		entry.Data = append(entry.Data, make([]byte, 36)...)
	})
	assert.ErrorIs(t, err, ErrDataTooLarge)

	// 校验失败时槽位保持原样
	got, _ := tbl.FindByAddr(addr(1))
	assert.Len(t, got.Data, 64)
	assert.Equal(t, byte(0), got.Data[0])
}

// TestTable_UpdateCopiesData 测试 Update 不泄露内部缓冲区
func TestTable_UpdateCopiesData(t *testing.T) {
	tbl := newTable(t, 1)
	e, err := tbl.Allocate(addr(1), 4)
	require.NoError(t, err)

	var leaked, replaced []byte
	require.NoError(t, tbl.Update(e.Handle, func(entry *types.ConnEntry) {
		leaked = entry.Data
		leaked[0] = 1
	}))
	leaked[1] = 2

	got, _ := tbl.FindByAddr(addr(1))
	assert.Equal(t, []byte{1, 0, 0, 0}, got.Data)

	replaced = []byte{7, 7}
	require.NoError(t, tbl.Update(e.Handle, func(entry *types.ConnEntry) {
		entry.Data = replaced
	}))
	replaced[0] = 9

	got, _ = tbl.FindByAddr(addr(1))
	assert.Equal(t, []byte{7, 7}, got.Data)
}

// TestTable_DeleteUnbound 测试只释放未绑定连接的条目
func TestTable_DeleteUnbound(t *testing.T) {
	tbl := newTable(t, 2)
	_, err := tbl.Allocate(addr(1), 0)
	require.NoError(t, err)
	bound, err := tbl.Allocate(addr(2), 0)
	require.NoError(t, err)
	require.NoError(t, tbl.Update(bound.Handle, func(entry *types.ConnEntry) {
		entry.HasConnID = true
	}))

	deleted, err := tbl.DeleteUnbound(addr(1))
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = tbl.DeleteUnbound(addr(2))
	require.NoError(t, err)
	assert.False(t, deleted)
	_, ok := tbl.FindByAddr(addr(2))
	assert.True(t, ok)

	_, err = tbl.DeleteUnbound(addr(1))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tbl.DeleteUnbound(types.ZeroMAC)
	assert.ErrorIs(t, err, ErrSentinelAddr)
}

func TestTable_Delete(t *testing.T) {
	tbl := newTable(t, 2)
	_, err := tbl.Allocate(addr(1), 4)
	require.NoError(t, err)

	require.NoError(t, tbl.Delete(addr(1)))
	assert.ErrorIs(t, tbl.Delete(addr(1)), ErrNotFound)
	_, ok := tbl.FindByAddr(addr(1))
	assert.False(t, ok)

	// 槽位被完整清零
	assert.Equal(t, slot{}, tbl.slots[0])
}

// TestTable_ForEachOrder 测试遍历顺序与回调重入
func TestTable_ForEachOrder(t *testing.T) {
	tbl := newTable(t, 4)
	for _, n := range []byte{3, 1, 2} {
		_, err := tbl.Allocate(addr(n), 0)
		require.NoError(t, err)
	}

	var order []types.MAC
	tbl.ForEach(func(e types.ConnEntry) {
		order = append(order, e.Addr)
		// 回调内可以调用表方法
		_, _ = tbl.FindByAddr(e.Addr)
	})
	assert.Equal(t, []types.MAC{addr(3), addr(1), addr(2)}, order)
}

// TestTable_ReturnsCopies 测试返回副本
func TestTable_ReturnsCopies(t *testing.T) {
	tbl := newTable(t, 1)
	e, err := tbl.Allocate(addr(1), 2)
	require.NoError(t, err)

	e.Data[0] = 9
	got, _ := tbl.FindByAddr(addr(1))
	assert.Equal(t, byte(0), got.Data[0])
}

type sizeRecorder struct {
	noopReporter
	sizes []int
}

func (r *sizeRecorder) ConnTableSize(n int) { r.sizes = append(r.sizes, n) }

func TestTable_ReportsSize(t *testing.T) {
	r := &sizeRecorder{}
	tbl, err := New(DefaultConfig(), WithReporter(r))
	require.NoError(t, err)

	_, _ = tbl.Allocate(addr(1), 0)
	_, _ = tbl.Allocate(addr(2), 0)
	_ = tbl.Delete(addr(1))
	assert.Equal(t, []int{1, 2, 1}, r.sizes)
}

// TestTable_Concurrent 并发分配/删除
func TestTable_Concurrent(t *testing.T) {
	tbl := newTable(t, 4)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			a := addr(byte(w + 1))
			for i := 0; i < 100; i++ {
				if _, err := tbl.Allocate(a, 4); err == nil {
					_ = tbl.Delete(a)
				}
				tbl.ForEach(func(types.ConnEntry) {})
			}
		}(w)
	}
	wg.Wait()

	assert.Zero(t, tbl.Len())
}
