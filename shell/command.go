package shell

import (
	"errors"
	"strconv"
	"strings"
)

type Kind int

const (
	Unknown Kind = iota
	Empty
	Help
	Search
	All
	Summary
	Active
	Overdue
	Checkout
	Checkin
	Add
	Stock
	Import
	Query
	ToggleLLM
	Exit
)

// Command is one parsed line. Unknown commands keep the raw text so the
// caller can hand it to the natural-language fallback.
type Command struct {
	Kind Kind
	Arg  string // search term, file name, query text or raw line
	ID   uint
	Qty  *int
	N    int
}

var ErrUsage = errors.New("usage")

type usageError string

func (u usageError) Error() string { return "Usage: " + string(u) }
func (u usageError) Unwrap() error { return ErrUsage }

var keywords = map[string]Kind{
	"help":     Help,
	"search":   Search,
	"all":      All,
	"summary":  Summary,
	"active":   Active,
	"overdue":  Overdue,
	"checkout": Checkout,
	"checkin":  Checkin,
	"add":      Add,
	"stock":    Stock,
	"import":   Import,
	"llm":      ToggleLLM,
	"exit":     Exit,
	"quit":     Exit,
}

func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: Empty}, nil
	}
	if len(line) >= 6 && strings.EqualFold(line[:6], "query:") {
		q := strings.TrimSpace(line[6:])
		if q == "" {
			return Command{}, usageError("query: [text]")
		}
		return Command{Kind: Query, Arg: q}, nil
	}

	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	kind, ok := keywords[strings.ToLower(word)]
	if !ok {
		return Command{Kind: Unknown, Arg: line}, nil
	}

	switch kind {
	case Search, Import:
		if kind == Import && rest == "" {
			return Command{}, usageError("import [file.csv | s3://bucket/key]")
		}
		return Command{Kind: kind, Arg: rest}, nil
	case Checkin:
		f := strings.Fields(rest)
		if len(f) < 1 || len(f) > 2 {
			return Command{}, usageError("checkin [item_id] [quantity]")
		}
		id, err := parseID(f[0])
		if err != nil {
			return Command{}, usageError("checkin [item_id] [quantity]")
		}
		cmd := Command{Kind: Checkin, ID: id}
		if len(f) == 2 {
			q, err := strconv.Atoi(f[1])
			if err != nil {
				return Command{}, usageError("checkin [item_id] [quantity]")
			}
			cmd.Qty = &q
		}
		return cmd, nil
	case Stock:
		f := strings.Fields(rest)
		if len(f) != 2 {
			return Command{}, usageError("stock [item_id] [new_stock]")
		}
		id, err := parseID(f[0])
		if err != nil {
			return Command{}, usageError("stock [item_id] [new_stock]")
		}
		n, err := strconv.Atoi(f[1])
		if err != nil {
			return Command{}, usageError("stock [item_id] [new_stock]")
		}
		return Command{Kind: Stock, ID: id, N: n}, nil
	default:
		// 其余命令不带参数；带了参数就当作自然语言
		if rest != "" {
			return Command{Kind: Unknown, Arg: line}, nil
		}
		return Command{Kind: kind}, nil
	}
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(n), nil
}
