package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"workshop_tool_inventory/config"
	"workshop_tool_inventory/metrics"
)

// Oracle is the text-generation service the bridge asks for SQL and
// for intent classification.
type Oracle interface {
	Ping(ctx context.Context) error
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	Prompt      string   `json:"prompt"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop,omitempty"`
	Model       string   `json:"model,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// HTTPOracle 调用 OpenAI 兼容的 completions 接口（LM Studio）
type HTTPOracle struct {
	base            string
	completionsPath string
	modelsPath      string
	model           string
	client          *http.Client
}

func NewHTTPOracle(cfg config.LLMConfig, client *http.Client) *HTTPOracle {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPOracle{
		base:            cfg.URL,
		completionsPath: cfg.CompletionsPath,
		modelsPath:      cfg.ModelsPath,
		model:           cfg.Model,
		client:          client,
	}
}

func (o *HTTPOracle) Ping(ctx context.Context) error {
	defer metrics.ObserveOracle("ping", time.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.base+o.modelsPath, nil)
	if err != nil {
		return err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: models endpoint returned %d", ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

func (o *HTTPOracle) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	defer metrics.ObserveOracle("complete", time.Now())

	if in.Model == "" {
		in.Model = o.model
	}
	body, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+o.completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		// 连不上 / 超时都算服务不可用
		return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: service returned %d", ErrTranslation, resp.StatusCode)
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode completion: %v", ErrTranslation, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: completion has no choices", ErrTranslation)
	}
	return out.Choices[0].Text, nil
}

// Disabled 是没有配置模型服务时的占位实现
type Disabled struct{}

func (Disabled) Ping(context.Context) error { return ErrServiceUnavailable }

func (Disabled) Complete(context.Context, CompletionRequest) (string, error) {
	return "", ErrServiceUnavailable
}
