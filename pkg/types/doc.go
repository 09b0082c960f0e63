// Package types 定义 go-rawlink 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - mac.go     - MAC 6 字节链路地址、哨兵地址判定
//   - link.go    - SendStatus、Iface 等链路层枚举
//   - conn.go    - 连接表条目与会话
//   - rendezvous.go - 帧类型、汇合状态与状态快照
//   - errors.go  - 公共错误定义
package types
