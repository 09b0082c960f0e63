// Package main 提供 rawlink 命令行入口
//
//	rawlink run       在组播链路上运行一轮汇合
//	rawlink simulate  在进程内模拟介质上运行多台设备
//	rawlink version   显示版本信息
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dep2p/go-rawlink/pkg/lib/log"
)

var logger = log.Logger("rawlink/cmd")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd 构建命令树
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rawlink",
		Short:         "raw frame rendezvous between two devices",
		Long:          `rawlink broadcasts frames carrying a random magic, elects the unicast sender once a peer is heard and sends it a fixed number of unicast frames`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newSimulateCmd(),
		newVersionCmd(),
	)
	return root
}
