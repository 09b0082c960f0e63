// Package lib 包含基础设施工具库
//
// 本目录包含与架构组件无关的通用工具库：
//
//   - crc16: 帧校验使用的 CRC-16（多项式 0x8408）
//   - log: 按组件命名的 slog 日志封装
//
// # 与 pkg/ 其他目录的关系
//
//   - interfaces/: 组件公共接口（架构核心）
//   - types/: 公共类型定义（架构核心）
//   - lib/: 基础设施工具库（本目录）
//
// # 使用示例
//
//	import (
//	    "github.com/dep2p/go-rawlink/pkg/lib/crc16"
//	    "github.com/dep2p/go-rawlink/pkg/lib/log"
//	)
package lib
