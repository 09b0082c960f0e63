// Package eventqueue 实现有界 FIFO 事件队列
//
// 生产者（链路回调）与单个消费者（引擎 goroutine）之间通过队列传递消息。
//
// # 入队语义
//
//   - TryPush: 非阻塞，队列满时立即返回 ErrFull 并计入丢弃计数
//   - Push: 阻塞，直到有空位、ctx 取消或队列关闭
//   - Offer: 按配置的溢出策略选择 TryPush 或 Push，供回调路径使用
//
// 出队只有阻塞的 Pop。
//
// # 关闭
//
// Close 之后所有入队立即返回 ErrClosed；底层 channel 不会被关闭，
// 以避免回调在关闭过程中向已关闭 channel 发送。
package eventqueue
