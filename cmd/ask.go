package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askSQLOnly bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a natural language question about the inventory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		text := strings.Join(args, " ")
		out := cmd.OutOrStdout()
		if askSQLOnly {
			stmt, err := a.Bridge.Translate(ctx, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, stmt)
			return nil
		}

		reply, err := a.Bridge.Ask(ctx, text)
		if err != nil {
			return err
		}
		if reply.Answer != nil {
			fmt.Fprintf(out, "📝 Generated SQL: %s\n", reply.Answer.SQL)
		}
		fmt.Fprintln(out, reply.Text)
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askSQLOnly, "sql", false, "Print the generated SQL without running it")
	rootCmd.AddCommand(askCmd)
}
