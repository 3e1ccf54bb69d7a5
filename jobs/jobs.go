// Package jobs holds the scheduled maintenance tasks run by the server.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"workshop_tool_inventory/bridge"
	"workshop_tool_inventory/db"

	"github.com/robfig/cron/v3"
)

// Job holds schedule and run function.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// ReprobeOracle 模型服务掉线后定时重连
func ReprobeOracle(br *bridge.Bridge) Job {
	return Job{
		Name:     "oracle-reprobe",
		Schedule: "@every 1m",
		Run: func(ctx context.Context) error {
			if !br.Connected() {
				br.Connect(ctx)
			}
			return nil
		},
	}
}

// ReportOverdue 每天早上把逾期未还的借用打到日志里
func ReportOverdue(repo *db.Repo) Job {
	return Job{
		Name:     "overdue-report",
		Schedule: "0 7 * * *",
		Run: func(ctx context.Context) error {
			rows, err := repo.ListOverdueLoans(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				log.Printf("[overdue] nothing overdue")
				return nil
			}
			log.Printf("[overdue] %d checkouts past expected return", len(rows))
			for _, r := range rows {
				due := "-"
				if r.ExpectedReturn != nil {
					due = r.ExpectedReturn.Format("2006-01-02")
				}
				log.Printf("[overdue] loan %d: %d x %s with %s, due %s",
					r.LoanID, r.Outstanding(), r.ItemName, r.EmployeeName, due)
			}
			return nil
		},
	}
}

func Defaults(repo *db.Repo, br *bridge.Bridge) []Job {
	return []Job{ReprobeOracle(br), ReportOverdue(repo)}
}

// StartCron registers every job and starts the scheduler. Jobs receive ctx,
// so cancelling it aborts in-flight runs; callers still Stop the scheduler.
func StartCron(ctx context.Context, jobs []Job) (*cron.Cron, error) {
	c := cron.New()
	for _, j := range jobs {
		job := j
		if _, err := c.AddFunc(job.Schedule, func() { runJob(ctx, job) }); err != nil {
			return nil, fmt.Errorf("register job %s: %w", job.Name, err)
		}
	}
	c.Start()
	return c, nil
}

// RunByName runs one job immediately (jobs --run).
func RunByName(ctx context.Context, jobs []Job, name string) error {
	for _, j := range jobs {
		if j.Name == name {
			return j.Run(ctx)
		}
	}
	return fmt.Errorf("unknown job: %s", name)
}

func runJob(ctx context.Context, j Job) {
	if ctx.Err() != nil {
		return
	}
	if err := j.Run(ctx); err != nil {
		log.Printf("job %s failed: %v", j.Name, err)
	}
}
