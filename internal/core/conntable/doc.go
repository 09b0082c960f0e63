// Package conntable 实现固定容量的连接表
//
// 连接表以 6 字节地址为键保存每个对端的会话数据。槽位是一个定长数组，
// 下标即句柄（types.SlotHandle），在条目被删除前保持稳定。
//
// # 哨兵地址
//
// 全 0 与全 0xFF 地址永远不是有效条目：查找与遍历跳过它们，
// 分配与删除拒绝它们。槽位是否占用由显式的 used 标记决定，
// 即使某个槽位被写成哨兵地址也不会被当作有效条目。
//
// # 并发
//
// Table 由 sync.RWMutex 保护，对外只暴露条目副本；
// 需要修改条目时使用 Update 在锁内完成。
package conntable
