// Package metrics 提供链路与汇合引擎的监控指标
//
// Prometheus 实现 interfaces.Reporter，统计：
//   - 按帧类型的收发帧数与字节数
//   - 按原因的无效帧数
//   - 事件队列丢弃与链路发送失败
//   - 汇合状态与状态迁移次数
//   - 连接表占用
//   - 收发字节速率（RateMeter 滑动窗口）
//
// # 快速开始
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.NewPrometheus(reg, metrics.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	m.FrameSent(types.FrameBroadcast, 10)
//	fmt.Println(m.Snapshot().TxRate)
//
// 不需要指标时使用 Nop()。
package metrics
