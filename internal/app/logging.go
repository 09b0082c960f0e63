package app

import (
	"fmt"
	"io"
	"os"

	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/internal/util/logger"
)

// SetupLogging 按配置调整子系统日志
//
// 必须在所有模块初始化之前调用。指定了 File 时把所有日志重定向到该文件
// （追加模式），返回的 Closer 在程序退出时关闭它；未指定时返回 nil。
func SetupLogging(cfg config.LogConfig) (io.Closer, error) {
	logger.Apply(cfg.Level, cfg.Format)

	if cfg.File == "" {
		return nil, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	logger.SetOutput(file)

	log := logger.Logger("app")
	log.Info("日志文件初始化成功", "path", cfg.File)
	return file, nil
}
