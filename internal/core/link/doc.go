// Package link 提供原始链路层的公共部件与实现选择
//
// 原始链路是无连接、以 6 字节 MAC 寻址的链路层。每条链路持有
// 自己的对端表（PeerList），发送异步完成并通过回调报告。
//
// 实现：
//
//   - memlink: 进程内模拟无线介质，用于测试与仿真
//   - udplink: 基于 IPv4 组播的链路，用于在真实网络上运行
//
// 本包的 Module 按配置中的 driver 选择实现并注入 interfaces.Link。
package link
