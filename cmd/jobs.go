package cmd

import (
	"fmt"

	"workshop_tool_inventory/jobs"

	"github.com/spf13/cobra"
)

var jobName string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List scheduled jobs or run one by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		all := jobs.Defaults(a.Repo, a.Bridge)
		if jobName == "" {
			for _, j := range all {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", j.Name, j.Schedule)
			}
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Running job: %s\n", jobName)
		return jobs.RunByName(ctx, all, jobName)
	},
}

func init() {
	jobsCmd.Flags().StringVarP(&jobName, "run", "r", "", "Run a single job by name and exit")
	rootCmd.AddCommand(jobsCmd)
}
