// Package introspect 提供本地自省 HTTP 服务
//
// 该服务运行在本地端口，提供 JSON 格式的诊断信息和 Prometheus 指标。
//
// # 端点
//
//	GET /debug/introspect            - 完整诊断报告 (JSON)
//	GET /debug/introspect/rendezvous - 汇合引擎状态
//	GET /debug/introspect/peers      - 最近观察到的对端
//	GET /debug/introspect/conntable  - 连接表条目
//	GET /debug/introspect/runtime    - 运行时信息
//	GET /metrics                     - Prometheus 指标
//	GET /debug/pprof/*               - Go pprof 端点
//	GET /health                      - 健康检查
//
// # 使用示例
//
//	server := introspect.New(introspect.Config{
//	    Addr:       "127.0.0.1:9476",
//	    Rendezvous: engine,
//	    Gatherer:   registry,
//	})
//	server.Start(ctx)
//	defer server.Stop()
//
// # 安全
//
// 默认只监听本地地址。通过 config.Metrics.ListenAddr 启用。
package introspect
