// Package shell is the interactive workshop console: structured commands
// first, natural-language questions when nothing matches.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"workshop_tool_inventory/bridge"
	"workshop_tool_inventory/db"
	"workshop_tool_inventory/importer"

	"github.com/common-nighthawk/go-figure"
)

const maxChoices = 10

type Shell struct {
	repo   *db.Repo
	bridge *bridge.Bridge
	im     *importer.Importer

	in  *bufio.Scanner
	out io.Writer

	llmOn bool
}

func New(repo *db.Repo, br *bridge.Bridge, im *importer.Importer, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		repo:   repo,
		bridge: br,
		im:     im,
		in:     bufio.NewScanner(in),
		out:    out,
		llmOn:  br != nil && br.Connected(),
	}
}

func (s *Shell) printf(format string, args ...any) { fmt.Fprintf(s.out, format, args...) }

func (s *Shell) llmReady() bool { return s.llmOn && s.bridge != nil && s.bridge.Connected() }

// Run reads commands until exit, EOF or ctx cancellation.
func (s *Shell) Run(ctx context.Context) error {
	s.banner()
	for ctx.Err() == nil {
		prompt := ">>> "
		if s.llmReady() {
			prompt = "🤖 >>> "
		}
		line, ok := s.ask(prompt)
		if !ok {
			s.printf("\n")
			return s.in.Err()
		}
		if quit := s.Exec(ctx, line); quit {
			s.printf("Goodbye!\n")
			return nil
		}
	}
	return ctx.Err()
}

func (s *Shell) banner() {
	s.printf("%s\n", figure.NewFigure("Workshop", "", true).String())
	s.printf("%s\n", strings.Repeat("=", 40))
	if s.llmReady() {
		s.printf("🤖 LLM Mode: ENABLED\n   - Ask questions in plain language\n   - Or prefix with 'query:' to force it\n")
	} else {
		s.printf("🤖 LLM Mode: DISABLED\n   - Start LM Studio and type 'llm' to enable natural language queries\n")
	}
	s.printf("\nType 'help' for commands or 'exit' to quit\n\n")
}

// Exec runs one line and reports whether the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	cmd, err := Parse(line)
	if err != nil {
		s.printf("%v\n", err)
		return false
	}

	switch cmd.Kind {
	case Empty:
		return false
	case Exit:
		return true
	case Help:
		s.help()
	case Search:
		s.search(ctx, cmd.Arg)
	case All:
		s.search(ctx, "")
	case Summary:
		s.summary(ctx)
	case Active:
		s.active(ctx, false)
	case Overdue:
		s.active(ctx, true)
	case Checkout:
		s.checkout(ctx)
	case Checkin:
		s.checkin(ctx, cmd.ID, cmd.Qty)
	case Add:
		s.add(ctx)
	case Stock:
		s.stock(ctx, cmd.ID, cmd.N)
	case Import:
		s.importFile(ctx, cmd.Arg)
	case ToggleLLM:
		s.toggleLLM(ctx)
	case Query:
		s.naturalLanguage(ctx, cmd.Arg)
	case Unknown:
		// 结构化命令没匹配上才交给模型
		if s.llmReady() {
			s.naturalLanguage(ctx, cmd.Arg)
		} else {
			s.printf("Unknown command. Type 'help' for commands.\n")
		}
	}
	s.printf("\n")
	return false
}

func (s *Shell) ask(prompt string) (string, bool) {
	s.printf("%s", prompt)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Shell) help() {
	s.printf(`
📋 COMMANDS:

🔍 Search & View:
  search [term]        - Search for items
  all                  - Show all items
  summary              - Show inventory summary
  active               - Show active checkouts
  overdue              - Show checkouts past their expected return

📤 Check Out/In:
  checkout             - Check out an item
  checkin [id] [qty]   - Return an item (all outstanding by default)

📝 Management:
  add                  - Add new item
  stock [id] [n]       - Set total stock, keeping checked-out units
  import [file]        - Import CSV file (local path or s3://bucket/key)
`)
	if s.llmReady() {
		s.printf(`
🤖 LLM Queries:
  query: [text]        - Force LLM processing
  Or just type naturally:
  - 'show all items with low stock'
  - 'what did Juan check out?'
  - 'items checked out to field'
`)
	}
	s.printf(`
⚙️ System:
  llm                  - Toggle LLM mode
  help                 - Show this help
  exit                 - Quit
`)
}

func (s *Shell) search(ctx context.Context, term string) {
	items, err := s.repo.SearchItems(ctx, term)
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	if len(items) == 0 {
		s.printf("No items found\n")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tBrand\tAvail/Stock")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\n", it.ID, clip(it.Name, 30), clip(it.Brand, 15), it.Available, it.Stock)
	}
	tw.Flush()
}

func (s *Shell) summary(ctx context.Context) {
	st, err := s.repo.Summary(ctx)
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	s.printf("\n📊 INVENTORY SUMMARY:\n")
	s.printf("Total items: %d\n", st.TotalItems)
	s.printf("Total stock: %d\n", st.TotalStock)
	s.printf("Available: %d\n", st.TotalAvailable)
	s.printf("Low stock items: %d\n", st.LowStockCount)
}

func (s *Shell) active(ctx context.Context, overdueOnly bool) {
	var (
		rows []db.ActiveLoanRow
		err  error
	)
	if overdueOnly {
		rows, err = s.repo.ListOverdueLoans(ctx, time.Now().UTC())
	} else {
		rows, err = s.repo.ListActiveLoans(ctx)
	}
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	if len(rows) == 0 {
		if overdueOnly {
			s.printf("No overdue checkouts\n")
		} else {
			s.printf("No active checkouts\n")
		}
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tItem\tEmployee\tQty\tDate\tLocation")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			r.ItemID, clip(r.ItemName, 25), clip(r.EmployeeName, 20),
			r.Outstanding(), r.CheckoutAt.Local().Format("2006-01-02"), r.Location)
	}
	tw.Flush()
}

func (s *Shell) checkout(ctx context.Context) {
	term, ok := s.ask("Search for item: ")
	if !ok {
		return
	}
	items, err := s.repo.SearchItems(ctx, term)
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	if len(items) == 0 {
		s.printf("No items found\n")
		return
	}
	items = items[:min(len(items), maxChoices)]
	for i, it := range items {
		s.printf("%d. %s (%s) - Available: %d\n", i+1, it.Name, it.Brand, it.Available)
	}

	choice, _ := s.ask(fmt.Sprintf("Select item (1-%d): ", len(items)))
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(items) {
		s.printf("Invalid selection\n")
		return
	}
	item := items[n-1]

	employee, _ := s.ask("Employee name: ")
	qtyText, _ := s.ask("Quantity (default 1): ")
	qty := 1
	if qtyText != "" {
		qty = db.CoerceQuantity(qtyText)
	}
	location, _ := s.ask("Location (default: field): ")
	order, _ := s.ask("Order number: ")

	res, err := s.repo.Checkout(ctx, db.CheckoutInput{
		ItemID:       item.ID,
		EmployeeName: employee,
		Quantity:     qty,
		Location:     location,
		OrderRef:     order,
	})
	if err != nil {
		s.printf("❌ %v\n", err)
		return
	}
	s.printf("✅ %s\n", res.Message())
}

func (s *Shell) checkin(ctx context.Context, id uint, qty *int) {
	res, err := s.repo.Checkin(ctx, id, qty)
	if err != nil {
		s.printf("❌ %v\n", err)
		return
	}
	s.printf("✅ %s\n", res.Message())
}

func (s *Shell) add(ctx context.Context) {
	s.printf("\n➕ ADD NEW ITEM\n")
	name, _ := s.ask("Item name: ")
	brand, _ := s.ask("Brand: ")
	equipment, _ := s.ask("Equipment type: ")
	stock, _ := s.ask("Stock quantity: ")
	notes, _ := s.ask("Notes: ")

	it, err := s.repo.CreateItem(ctx, db.ItemInput{
		Name:      name,
		Brand:     brand,
		Equipment: equipment,
		Stock:     db.CoerceQuantity(stock),
		Notes:     notes,
	})
	if err != nil {
		s.printf("❌ %v\n", err)
		return
	}
	s.printf("✅ Added %s (id %d, stock %d)\n", it.Name, it.ID, it.Stock)
}

func (s *Shell) stock(ctx context.Context, id uint, n int) {
	it, err := s.repo.AdjustStock(ctx, id, n)
	if err != nil {
		s.printf("❌ %v\n", err)
		return
	}
	s.printf("✅ %s: stock %d, available %d\n", it.Name, it.Stock, it.Available)
}

func (s *Shell) importFile(ctx context.Context, path string) {
	res, err := s.im.ImportFile(ctx, path)
	if err != nil {
		s.printf("❌ Import failed: %v\n", err)
		return
	}
	s.printf("✅ Imported %d items (%d skipped)\n", res.Imported, res.Skipped)
}

func (s *Shell) toggleLLM(ctx context.Context) {
	if s.bridge == nil {
		s.printf("LLM support is not configured.\n")
		return
	}
	if s.llmReady() {
		s.llmOn = false
		s.printf("🤖 LLM Mode: DISABLED\n")
		return
	}
	s.llmOn = s.bridge.Connect(ctx)
	if s.llmOn {
		s.printf("🤖 LLM Mode: ENABLED\n")
	} else {
		s.printf("⚠️ LM Studio not connected - start LM Studio to use natural language queries\n")
	}
}

func (s *Shell) naturalLanguage(ctx context.Context, text string) {
	if !s.llmReady() {
		s.printf("LM Studio not connected. Please start LM Studio first.\n")
		return
	}
	s.printf("🔄 Processing query...\n")
	reply, err := s.bridge.Ask(ctx, text)
	if err != nil {
		if errors.Is(err, bridge.ErrServiceUnavailable) {
			s.llmOn = false
		}
		s.printf("❌ %v\n", err)
		return
	}
	if reply.Answer != nil {
		s.printf("📝 Generated SQL: %s\n", reply.Answer.SQL)
	}
	s.printf("%s\n", reply.Text)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
