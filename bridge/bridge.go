// Package bridge turns free-text requests into read-only SQL through an
// external text-generation service and runs them against the inventory.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"workshop_tool_inventory/config"
	"workshop_tool_inventory/db"
	"workshop_tool_inventory/metrics"

	"golang.org/x/text/cases"
)

var (
	ErrServiceUnavailable = errors.New("text-generation service not connected")
	ErrTranslation        = errors.New("translation failed")
	ErrUnsafeStatement    = fmt.Errorf("%w: statement is not read-only", ErrTranslation)
	ErrQueryExecution     = errors.New("SQL execution error")
)

type Category string

const (
	CategoryQuery    Category = "QUERY"
	CategoryCheckout Category = "CHECKOUT"
	CategoryCheckin  Category = "CHECKIN"
	CategoryAdd      Category = "ADD"
	CategoryOther    Category = "OTHER"
)

const (
	classifyMaxTokens   = 10
	defaultQueryTimeout = 10 * time.Second

	NoResults          = "No results found."
	CouldNotUnderstand = "I couldn't understand that request. Try rephrasing or use the help command."
)

var guidance = map[Category]string{
	CategoryCheckout: "To checkout items, use the 'checkout' command",
	CategoryCheckin:  "To return items, use 'checkin [item_id]'",
	CategoryAdd:      "To add new items, use the 'add' command",
}

// Executor runs a guarded statement; *db.Repo satisfies it.
type Executor interface {
	RunReadOnly(ctx context.Context, stmt string, timeout time.Duration) (*db.QueryResult, error)
}

// Cache stores translations keyed by normalized request text.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, stmt string)
}

type Option func(*Bridge)

func WithCache(c Cache) Option { return func(b *Bridge) { b.cache = c } }

// WithDialect 告诉模型生成哪种 SQL（sqlite / postgres）
func WithDialect(d string) Option { return func(b *Bridge) { b.dialect = d } }

func WithQueryTimeout(d time.Duration) Option { return func(b *Bridge) { b.queryTimeout = d } }

type Bridge struct {
	oracle       Oracle
	exec         Executor
	cache        Cache
	cfg          config.LLMConfig
	dialect      string
	queryTimeout time.Duration

	connected atomic.Bool
}

// New never fails; a nil oracle yields a bridge that stays disconnected.
func New(cfg config.LLMConfig, oracle Oracle, exec Executor, opts ...Option) *Bridge {
	if oracle == nil {
		oracle = Disabled{}
	}
	b := &Bridge{
		oracle:       oracle,
		exec:         exec,
		cfg:          cfg,
		dialect:      "sqlite",
		queryTimeout: defaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connect 探测模型服务，失败只会把状态置为未连接
func (b *Bridge) Connect(ctx context.Context) bool {
	timeout := b.cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := b.oracle.Ping(ctx)
	was := b.connected.Swap(err == nil)
	switch {
	case err == nil && !was:
		log.Printf("connected to text-generation service at %s", b.cfg.URL)
	case err != nil && was:
		log.Printf("text-generation service lost: %v", err)
	case err != nil:
		log.Printf("text-generation service not connected (%v); natural language queries disabled", err)
	}
	return err == nil
}

func (b *Bridge) Connected() bool { return b.connected.Load() }

// Translate 自然语言 → 一条经过只读检查的 SQL
func (b *Bridge) Translate(ctx context.Context, text string) (stmt string, err error) {
	defer func() { metrics.BridgeRequests.WithLabelValues("translate", outcome(err)).Inc() }()

	if !b.Connected() {
		return "", ErrServiceUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty request", ErrTranslation)
	}

	key := b.dialect + ":" + normalize(text)
	if b.cache != nil {
		if s, ok := b.cache.Get(ctx, key); ok {
			return s, nil
		}
	}

	raw, err := b.complete(ctx, CompletionRequest{
		Prompt:      sqlPrompt(b.dialect, text),
		Temperature: b.cfg.Temperature,
		MaxTokens:   b.cfg.MaxTokens,
		Stop:        []string{"\n\n", "Note:", "Explanation:"},
	})
	if err != nil {
		return "", err
	}
	stmt = CleanSQL(raw)
	if stmt == "" {
		return "", fmt.Errorf("%w: empty completion", ErrTranslation)
	}
	if err := CheckReadOnly(stmt); err != nil {
		return "", err
	}

	if b.cache != nil {
		b.cache.Set(ctx, key, stmt)
	}
	return stmt, nil
}

type Answer struct {
	SQL    string          `json:"sql"`
	Result *db.QueryResult `json:"result"`
}

// Execute 翻译后在只读事务里执行；查不到数据不算错误
func (b *Bridge) Execute(ctx context.Context, text string) (ans *Answer, err error) {
	stmt, err := b.Translate(ctx, text)
	if err != nil {
		return nil, err
	}
	defer func() { metrics.BridgeRequests.WithLabelValues("execute", outcome(err)).Inc() }()

	log.Printf("generated SQL: %s", stmt)
	res, err := b.exec.RunReadOnly(ctx, stmt, b.queryTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecution, err)
	}
	return &Answer{SQL: stmt, Result: res}, nil
}

func (b *Bridge) Classify(ctx context.Context, text string) (c Category, err error) {
	defer func() { metrics.BridgeRequests.WithLabelValues("classify", outcome(err)).Inc() }()

	if !b.Connected() {
		return "", ErrServiceUnavailable
	}
	raw, err := b.complete(ctx, CompletionRequest{
		Prompt:      classifyPrompt(text),
		Temperature: b.cfg.Temperature,
		MaxTokens:   classifyMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return parseCategory(raw), nil
}

type Reply struct {
	Category Category `json:"category"`
	Answer   *Answer  `json:"answer,omitempty"`
	Text     string   `json:"text"`
}

// Ask 先分类：查询就执行，借还/新增只给出命令提示，分不清时试着当查询跑一次
func (b *Bridge) Ask(ctx context.Context, text string) (*Reply, error) {
	cat, err := b.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	if msg, ok := guidance[cat]; ok {
		return &Reply{Category: cat, Text: msg}, nil
	}

	ans, err := b.Execute(ctx, text)
	if cat == CategoryQuery {
		if err != nil {
			return nil, err
		}
		return &Reply{Category: cat, Answer: ans, Text: FormatRows(ans.Result)}, nil
	}

	if err != nil || len(ans.Result.Rows) == 0 {
		if errors.Is(err, ErrServiceUnavailable) {
			return nil, err
		}
		return &Reply{Category: cat, Text: CouldNotUnderstand}, nil
	}
	return &Reply{Category: cat, Answer: ans, Text: FormatRows(ans.Result)}, nil
}

func (b *Bridge) complete(ctx context.Context, req CompletionRequest) (string, error) {
	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}
	out, err := b.oracle.Complete(ctx, req)
	if errors.Is(err, ErrServiceUnavailable) && ctx.Err() == nil {
		// 服务掉线，等定时探测把它接回来
		b.connected.Store(false)
	}
	return out, err
}

// CleanSQL strips code fences and a leading "SQL:" label from a completion.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```sql", "")
	s = strings.ReplaceAll(s, "```SQL", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)
	if len(s) >= 4 && strings.EqualFold(s[:4], "sql:") {
		s = strings.TrimSpace(s[4:])
	}
	return s
}

func parseCategory(raw string) Category {
	up := strings.ToUpper(raw)
	for _, c := range []Category{CategoryQuery, CategoryCheckout, CategoryCheckin, CategoryAdd} {
		if strings.Contains(up, string(c)) {
			return c
		}
	}
	return CategoryOther
}

func normalize(text string) string {
	return cases.Fold().String(strings.Join(strings.Fields(text), " "))
}

// 不安全语句也属于翻译失败，先判断更具体的
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrServiceUnavailable):
		return "unavailable"
	case errors.Is(err, ErrUnsafeStatement):
		return "unsafe"
	case errors.Is(err, ErrTranslation):
		return "translation"
	case errors.Is(err, ErrQueryExecution):
		return "execution"
	default:
		return "error"
	}
}
