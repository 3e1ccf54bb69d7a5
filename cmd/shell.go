package cmd

import (
	"os"

	"workshop_tool_inventory/shell"

	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive inventory terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return shell.New(a.Repo, a.Bridge, a.Importer, os.Stdin, os.Stdout).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
