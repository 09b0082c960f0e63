// Package rendezvous 实现广播发现 + 单播汇合引擎
//
// 引擎在一轮运行中由单个 goroutine 消费有界事件队列。队列的生产者是
// 链路的两个回调（发送完成、接收），以及 Stop 投递的退出事件。
//
// # 协议
//
// 每轮开始时抽取一个随机 magic，先向广播地址发送一帧，此后每次广播
// 完成后等待 delay 再发下一帧。收到任意有效广播后本端状态位置 1；
// 若收到的广播状态位已是 1、本端尚未单播且本端 magic >= 对端 magic，
// 本端胜出：改向该对端发送单播并停止广播。收到发给自己的单播时停止广播。
// 单播发送完成 count 次后本轮结束。
//
// 两端 magic 相等时双方都会胜出，这是已知并接受的情况。
//
// # 状态
//
//	Broadcasting ──收到有效广播──▶ Negotiating ──胜出──▶ Unicasting
//	      │                              │                    │
//	      └──────────── Stop / 发送错误 ──┴──── count 用完 ────┴──▶ Stopped
//
// # 失败语义
//
// Start 中任一步失败都会撤销已完成的步骤并返回错误。运行中链路 Send
// 返回错误会结束本轮，错误可通过 Err 获得。无效帧只记录并丢弃。
package rendezvous
