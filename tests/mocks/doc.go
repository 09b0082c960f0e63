// Package mocks 提供测试用的 Mock 实现
//
// # Mock 列表
//
//   - MockLink: 模拟 interfaces.Link，记录发送与对端操作，
//     并可以主动触发发送完成与接收回调
//   - MockReporter: 模拟 interfaces.Reporter，记录调用次数
//
// # 设计原则
//
//  1. 函数式注入: 通过 XxxFunc 字段注入自定义行为
//  2. 调用记录: 记录调用历史，便于验证测试行为
//
// # 使用示例
//
//	link := mocks.NewMockLink(types.LocalMAC(1))
//	link.SendFunc = func(dst types.MAC, data []byte) error {
//	    return errors.New("radio off")
//	}
//
//	// 模拟收到一帧
//	link.DeliverRecv(peer, types.BroadcastMAC, frame)
//
//	// 模拟发送完成
//	link.CompleteSend(types.BroadcastMAC, types.SendSuccess)
package mocks
