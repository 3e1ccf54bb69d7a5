// Package cmd wires the command line: the HTTP server, the interactive
// shell and one-shot maintenance commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"workshop_tool_inventory/app"
	"workshop_tool_inventory/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "workshop",
	Short: "Workshop tool inventory: stock, loans, imports and natural language queries",
	// 不带子命令时进入交互终端
	RunE: func(cmd *cobra.Command, args []string) error {
		return shellCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext 在 Ctrl+C / SIGTERM 时取消
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, config.Load())
}
