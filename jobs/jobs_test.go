package jobs

import (
	"bytes"
	"context"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"workshop_tool_inventory/bridge"
	"workshop_tool_inventory/config"
	"workshop_tool_inventory/db"
)

func testRepo(t *testing.T) *db.Repo {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db.NewRepo(conn)
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestReportOverdue(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	it, err := repo.CreateItem(ctx, db.ItemInput{Name: "Generator", Stock: 2})
	if err != nil {
		t.Fatal(err)
	}
	due := time.Now().UTC().Add(-24 * time.Hour)
	if _, err := repo.Checkout(ctx, db.CheckoutInput{ItemID: it.ID, EmployeeName: "Carlos López", Quantity: 1, ExpectedReturn: &due}); err != nil {
		t.Fatal(err)
	}

	buf := captureLog(t)
	if err := RunByName(ctx, Defaults(repo, bridge.New(config.LLMConfig{}, nil, repo)), "overdue-report"); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "1 x Generator with Carlos López") {
		t.Errorf("log = %q", out)
	}
}

func TestRunByName_Unknown(t *testing.T) {
	if err := RunByName(context.Background(), nil, "nope"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestStartCron(t *testing.T) {
	if _, err := StartCron(context.Background(), []Job{{Name: "bad", Schedule: "every so often"}}); err == nil {
		t.Error("invalid schedule should fail")
	}

	var runs atomic.Int32
	c, err := StartCron(context.Background(), []Job{{
		Name:     "tick",
		Schedule: "@every 1s",
		Run:      func(context.Context) error { runs.Add(1); return nil },
	}})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Error("job never ran")
	}
}
