package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-rawlink"
	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/internal/core/link/memlink"
)

// simulateOptions simulate 命令参数
type simulateOptions struct {
	devices  int
	loss     float64
	latency  time.Duration
	count    int
	delay    time.Duration
	timeout  time.Duration
	logLevel string
}

func newSimulateCmd() *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "run several devices on an in-process medium",
		Long: `simulate attaches N nodes to one shared in-memory medium, starts a
rendezvous on each and waits until the first one finishes its unicast burst.
Every device's final status is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.devices, "devices", 2, "设备数量 (>=2)")
	f.Float64Var(&opts.loss, "loss", 0, "丢帧概率 [0,1)")
	f.DurationVar(&opts.latency, "latency", 0, "每帧空口时延")
	f.IntVar(&opts.count, "count", 10, "单播发送次数")
	f.DurationVar(&opts.delay, "delay", 10*time.Millisecond, "发送间隔")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "等待汇合的最长时间")
	f.StringVar(&opts.logLevel, "log-level", "warn", "日志级别")
	return cmd
}

// simulationConfig 构建所有模拟设备共用的配置
func simulationConfig(opts *simulateOptions) (*config.Config, error) {
	if opts.devices < 2 {
		return nil, fmt.Errorf("devices must be at least 2, got %d", opts.devices)
	}
	if opts.timeout <= 0 {
		return nil, errors.New("timeout must be positive")
	}

	cfg := config.NewConfig()
	cfg.Link = cfg.Link.WithDriver(config.LinkDriverMem)
	cfg.Link.Mem.LossRate = opts.loss
	cfg.Link.Mem.Latency = config.Duration(opts.latency)
	cfg.Rendezvous = cfg.Rendezvous.WithSendCount(opts.count).WithSendDelay(opts.delay)
	cfg.Metrics.Enable = false
	cfg.Log.Level = opts.logLevel

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runSimulate 运行模拟
func runSimulate(cmd *cobra.Command, opts *simulateOptions) error {
	cfg, err := simulationConfig(opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	medium := memlink.NewMedium(
		memlink.WithLatency(opts.latency),
		memlink.WithLossRate(opts.loss),
	)
	defer func() { _ = medium.Close() }()

	nodes := make([]*rawlink.Node, 0, opts.devices)
	defer func() {
		for _, n := range nodes {
			_ = n.Close()
		}
	}()
	for i := 0; i < opts.devices; i++ {
		n, err := rawlink.New(rawlink.WithConfig(cfg), rawlink.WithMedium(medium))
		if err != nil {
			return fmt.Errorf("创建设备 %d 失败: %w", i, err)
		}
		nodes = append(nodes, n)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	for i, n := range nodes {
		if err := n.Start(ctx); err != nil {
			return fmt.Errorf("启动设备 %d 失败: %w", i, err)
		}
	}
	fmt.Fprintf(out, "%d devices on the medium, loss=%.2f count=%d delay=%s\n",
		len(nodes), opts.loss, opts.count, opts.delay)

	first, waitErr := waitFirstDone(ctx, nodes)
	if waitErr == nil {
		fmt.Fprintf(out, "device %s finished first\n", nodes[first].Link().LocalMAC())
	}

	if err := printStatusTable(out, nodes); err != nil {
		return err
	}

	if err := stopAll(nodes); err != nil {
		return fmt.Errorf("停止设备失败: %w", err)
	}

	if waitErr != nil {
		return fmt.Errorf("rendezvous did not finish: %w", waitErr)
	}
	return nodes[first].Rendezvous().Err()
}

// waitFirstDone 等待任一设备结束本轮，返回其下标
func waitFirstDone(ctx context.Context, nodes []*rawlink.Node) (int, error) {
	done := make(chan int, len(nodes))
	for i, n := range nodes {
		go func(i int, ch <-chan struct{}) {
			<-ch
			done <- i
		}(i, n.Engine().Done())
	}

	select {
	case i := <-done:
		return i, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// stopAll 并发停止所有设备
func stopAll(nodes []*rawlink.Node) error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	var g errgroup.Group
	for _, n := range nodes {
		g.Go(func() error { return n.Stop(ctx) })
	}
	return g.Wait()
}
