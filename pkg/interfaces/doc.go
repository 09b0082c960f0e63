// Package interfaces 定义 go-rawlink 的公共接口
//
// 一个接口文件对应一个实现目录：
//   - link.go        - 原始链路（internal/core/link/memlink, internal/core/link/udplink）
//   - conntable.go   - 连接表（internal/core/conntable）
//   - rendezvous.go  - 汇合引擎（internal/core/rendezvous）
//   - metrics.go     - 指标上报（internal/core/metrics）
//
// 接口只依赖 pkg/types，实现包之间通过接口解耦，便于在测试中替换为 tests/mocks。
package interfaces
