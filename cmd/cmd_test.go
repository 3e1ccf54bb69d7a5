package cmd

import (
	"testing"
)

func TestSubcommands(t *testing.T) {
	want := []string{"serve", "shell", "import", "ask", "jobs"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("subcommand %q not registered (got %v, %v)", name, c, err)
		}
	}
}

func TestImportRequiresFile(t *testing.T) {
	importFile = ""
	if err := importCmd.RunE(importCmd, nil); err == nil || err.Error() != "--file is required" {
		t.Errorf("err = %v", err)
	}
}

func TestAskNeedsQuestion(t *testing.T) {
	if err := askCmd.Args(askCmd, nil); err == nil {
		t.Error("ask without a question should be rejected")
	}
}
