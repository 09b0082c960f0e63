package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/dep2p/go-rawlink/config"
)

// ============================================================================
//                              环境变量（CLI 专用）
// ============================================================================

// 环境变量名，均使用 RAWLINK_ 前缀
const (
	envPrefix      = "RAWLINK_"
	envPreset      = "PRESET"
	envDriver      = "DRIVER"
	envChannel     = "CHANNEL"
	envMAC         = "MAC"
	envIface       = "IFACE"
	envSendCount   = "SEND_COUNT"
	envMetricsAddr = "METRICS_ADDR"
	envLogLevel    = "LOG_LEVEL"
	envLogFile     = "LOG_FILE"
)

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
// 无法解析的数值被忽略。返回 RAWLINK_PRESET 的值。
func applyEnvOverrides(cfg *config.Config) string {
	if v := getenv(envDriver); v != "" {
		cfg.Link.Driver = v
	}

	if v := getenv(envChannel); v != "" {
		if ch, err := strconv.ParseUint(v, 10, 8); err == nil {
			cfg.Link.Channel = uint8(ch)
		}
	}

	if v := getenv(envMAC); v != "" {
		cfg.Link.MAC = v
	}

	if v := getenv(envIface); v != "" {
		cfg.Link.UDP.Interface = v
	}

	if v := getenv(envSendCount); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Rendezvous.SendCount = n
		}
	}

	if v := getenv(envMetricsAddr); v != "" {
		cfg.Metrics.ListenAddr = v
	}

	if v := getenv(envLogLevel); v != "" {
		cfg.Log.Level = v
	}

	if v := getenv(envLogFile); v != "" {
		cfg.Log.File = v
	}

	return getenv(envPreset)
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}
