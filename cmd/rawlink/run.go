package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dep2p/go-rawlink"
	"github.com/dep2p/go-rawlink/config"
)

// stopTimeout 退出时等待模块停止的时间
const stopTimeout = 10 * time.Second

// runOptions run 命令参数
//
// 命令行参数：运行时覆盖（「这次运行」想怎么跑）
// 配置文件：持久化配置（「这台设备」的固定配置）
type runOptions struct {
	configFile  string
	preset      string
	driver      string
	iface       string
	mac         string
	channel     uint8
	count       int
	metricsAddr string
	logFile     string
	logLevel    string
}

func newRunCmd() *cobra.Command {
	return newRunCmdWithOptions(&runOptions{})
}

// newRunCmdWithOptions 构建 run 命令，flag 绑定到 opts
func newRunCmdWithOptions(opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run one rendezvous on the multicast link",
		Long: `run starts a node, broadcasts until a peer is heard and either sends the
unicast burst or keeps listening. It exits when the run finishes or on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, preset, err := buildRunConfig(cmd, opts)
			if err != nil {
				return fmt.Errorf("配置错误: %w", err)
			}
			return runNode(cmd, cfg, preset)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", "", "配置文件路径 (JSON)")
	f.StringVar(&opts.preset, "preset", "", "预设 (default/fast/lowpower)")
	f.StringVar(&opts.driver, "driver", config.LinkDriverUDP, "链路实现 (udp/mem)")
	f.StringVar(&opts.iface, "iface", "", "组播网卡名")
	f.StringVar(&opts.mac, "mac", "", "本地地址，空表示随机生成")
	f.Uint8Var(&opts.channel, "channel", 1, "信道 (1-14)")
	f.IntVar(&opts.count, "count", 0, "单播发送次数，0 表示使用配置")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "诊断服务监听地址，例如 127.0.0.1:9476")
	f.StringVar(&opts.logFile, "log", "", "日志文件路径")
	f.StringVar(&opts.logLevel, "log-level", "", "日志级别，例如 info 或 rendezvous=debug,info")
	return cmd
}

// buildRunConfig 合并配置来源
//
// 优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（RAWLINK_* 前缀）
//  3. 配置文件
//  4. 默认值
func buildRunConfig(cmd *cobra.Command, opts *runOptions) (*config.Config, string, error) {
	var cfg *config.Config
	if opts.configFile != "" {
		var err error
		cfg, err = config.LoadFile(opts.configFile)
		if err != nil {
			return nil, "", fmt.Errorf("加载配置文件失败: %w", err)
		}
	} else {
		cfg = config.NewConfig()
		cfg.Link.Driver = opts.driver
	}

	preset := applyEnvOverrides(cfg)

	changed := cmd.Flags().Changed
	if changed("preset") {
		preset = opts.preset
	}
	if preset != "" {
		if err := config.ApplyPreset(cfg, preset); err != nil {
			return nil, "", err
		}
	}

	if changed("driver") {
		cfg.Link.Driver = opts.driver
	}
	if changed("iface") {
		cfg.Link.UDP.Interface = opts.iface
	}
	if changed("mac") {
		cfg.Link.MAC = opts.mac
	}
	if changed("channel") {
		cfg.Link.Channel = opts.channel
	}
	if opts.count > 0 {
		cfg.Rendezvous.SendCount = opts.count
	}
	if changed("metrics-addr") {
		cfg.Metrics.ListenAddr = opts.metricsAddr
	}
	if changed("log") {
		cfg.Log.File = opts.logFile
	}
	if changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, preset, nil
}

// runNode 启动节点，等待本轮结束或退出信号
func runNode(cmd *cobra.Command, cfg *config.Config, preset string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	fmt.Fprintf(out, "📦 %s\n", rawlink.VersionInfo())
	logger.Info("启动 rawlink 节点",
		"version", rawlink.Version,
		"driver", cfg.Link.Driver,
		"channel", cfg.Link.Channel,
		"preset", preset)

	node, err := rawlink.New(rawlink.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("创建节点失败: %w", err)
	}
	defer func() { _ = node.Close() }()

	if err := node.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	st := node.Status()
	fmt.Fprintf(out, "节点已启动 mac=%s channel=%d magic=%08x run=%s\n",
		node.Link().LocalMAC(), cfg.Link.Channel, st.Magic, st.RunID)
	if addr := node.IntrospectAddr(); addr != "" {
		fmt.Fprintf(out, "诊断服务: http://%s/debug/introspect\n", addr)
	}
	fmt.Fprintln(out, "按 Ctrl+C 退出")

	select {
	case <-node.Engine().Done():
	case <-ctx.Done():
		fmt.Fprintln(out, "\n正在关闭节点...")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	stopErr := node.Stop(stopCtx)

	if err := printStatusTable(out, []*rawlink.Node{node}); err != nil {
		return err
	}
	if err := node.Rendezvous().Err(); err != nil {
		return fmt.Errorf("汇合失败: %w", err)
	}
	return stopErr
}
