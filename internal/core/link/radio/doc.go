// Package radio 提供各链路实现共用的部件
//
// 包括对端表 PeerList、回调登记 Callbacks、信道校验与链路错误定义。
package radio
