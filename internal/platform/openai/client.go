package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/yungbote/rikai-backend/internal/observability"
	"github.com/yungbote/rikai-backend/internal/platform/envutil"
	"github.com/yungbote/rikai-backend/internal/platform/httpx"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
	"github.com/yungbote/rikai-backend/internal/platform/promptstyle"
)

const responsesPath = "/v1/responses"

// Turn is one prior message of a conversation. Role is "user" or "assistant".
type Turn struct {
	Role string
	Text string
}

// Client is the generative provider client used by the rest of the backend.
type Client interface {
	// Structured outputs (json_schema, strict)
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)

	// Plain text answer to user, with the full prior transcript as context. The
	// provider keeps no conversation state between calls.
	GenerateChat(ctx context.Context, system string, history []Turn, user string) (string, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	// MaxRetries bounds retries of transient failures. Zero disables them.
	MaxRetries int
	// InitialBackoff doubles after each retryable failure.
	InitialBackoff time.Duration
	// Temperature is omitted from requests when nil.
	Temperature *float64
	// RateLimit is requests per second; <= 0 disables limiting.
	RateLimit float64
	RateBurst int
}

func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:         envutil.String("OPENAI_API_KEY", ""),
		BaseURL:        envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:          envutil.String("OPENAI_MODEL", "gpt-5.2"),
		Timeout:        envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 180*time.Second),
		InitialBackoff: time.Second,
		RateLimit:      envutil.Float("OPENAI_RATE_LIMIT_RPS", 2),
		RateBurst:      envutil.Int("OPENAI_RATE_LIMIT_BURST", 4),
	}
	raw := strings.ToLower(envutil.String("OPENAI_TEMPERATURE", "0.2"))
	switch raw {
	case "off", "none", "nil", "false":
	default:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.Temperature = &f
		}
	}
	return cfg
}

func NewClientFromEnv(log *logger.Logger) (Client, error) {
	return NewClient(log, ConfigFromEnv())
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("missing model")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       strings.TrimSpace(cfg.Model),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.InitialBackoff,
		temperature: cfg.Temperature,
		limiter:     limiter,
		noTemp:      &sync.Map{},
	}, nil
}

// WithModel returns a client that uses model for every call. If model is
// empty or base is not a *client, base is returned unchanged. The clone shares
// the HTTP client and the rate limiter with base.
func WithModel(base Client, model string) Client {
	model = strings.TrimSpace(model)
	if base == nil || model == "" {
		return base
	}
	c, ok := base.(*client)
	if !ok {
		return base
	}
	clone := *c
	clone.model = model
	return &clone
}

// WithRetries returns a clone of base that retries transient failures at most
// n times. n <= 0 disables retries. Non-*client values are returned unchanged.
func WithRetries(base Client, n int) Client {
	c, ok := base.(*client)
	if !ok {
		return base
	}
	if n < 0 {
		n = 0
	}
	clone := *c
	clone.maxRetries = n
	return &clone
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration

	temperature *float64
	// noTemp holds models that rejected the temperature parameter.
	noTemp *sync.Map

	limiter *rate.Limiter
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func isUnsupportedTemperatureParam(err error) bool {
	var httpErr *openAIHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(httpErr.Body)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, s := range []string{"unsupported", "unknown parameter", "unrecognized parameter", "not supported", "does not support", "only the default"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func extractOutputText(resp responsesResponse) (text string, refusal string) {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			switch c.Type {
			case "output_text":
				out.WriteString(c.Text)
			case "refusal":
				refusal = c.Refusal
			}
		}
	}
	return out.String(), refusal
}

func (c *client) newRequest(system string, history []Turn, user string) *responsesRequest {
	req := &responsesRequest{Model: c.model}
	req.Input = append(req.Input, inputMessage{Role: "system", Content: system})
	for _, t := range history {
		role := strings.ToLower(strings.TrimSpace(t.Role))
		if role != "assistant" {
			role = "user"
		}
		req.Input = append(req.Input, inputMessage{Role: role, Content: t.Text})
	}
	req.Input = append(req.Input, inputMessage{Role: "user", Content: user})
	if c.temperature != nil {
		if _, skip := c.noTemp.Load(c.model); !skip {
			req.Temperature = c.temperature
		}
	}
	return req
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, errors.New("schemaName required")
	}
	if schema == nil {
		return nil, errors.New("schema required")
	}
	req := c.newRequest(promptstyle.ApplySystem(system, "json"), nil, user)
	req.Text = &struct {
		Format map[string]any `json:"format,omitempty"`
	}{Format: map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}}

	text, err := c.respond(ctx, "json", schemaName, req)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return obj, nil
}

func (c *client) GenerateChat(ctx context.Context, system string, history []Turn, user string) (string, error) {
	return c.respond(ctx, "chat", "", c.newRequest(promptstyle.ApplySystem(system, "chat"), history, user))
}

func (c *client) respond(ctx context.Context, mode, schemaName string, req *responsesRequest) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "openai.responses")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.String("llm.mode", mode),
		attribute.Int("llm.input_messages", len(req.Input)),
	)
	if schemaName != "" {
		span.SetAttributes(attribute.String("llm.schema", schemaName))
	}

	var resp responsesResponse
	err := c.do(ctx, req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperatureParam(err) {
		c.noTemp.Store(req.Model, struct{}{})
		c.log.Info("model rejected temperature; retrying without it", "model", req.Model)
		req.Temperature = nil
		err = c.do(ctx, req, &resp)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(
		attribute.Int("llm.input_tokens", resp.Usage.InputTokens),
		attribute.Int("llm.output_tokens", resp.Usage.OutputTokens),
	)
	text, refusal := extractOutputText(resp)
	if refusal != "" {
		return "", fmt.Errorf("model refused: %s", refusal)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

func (c *client) doOnce(ctx context.Context, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+responsesPath, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 2000)}
	}
	return resp, raw, nil
}

// do retries transport failures only (429, 5xx, network, timeouts). A
// response that arrives but does not satisfy the caller is never retried here.
func (c *client) do(ctx context.Context, req *responsesRequest, out *responsesResponse) error {
	backoff := c.backoff
	start := time.Now()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, req)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				observability.Current().ObserveLLMRequest(req.Model, responsesPath, "decode_error", time.Since(start), 0, 0)
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			observability.Current().ObserveLLMRequest(req.Model, responsesPath, statusFromResp(resp), time.Since(start), out.Usage.InputTokens, out.Usage.OutputTokens)
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			observability.Current().ObserveLLMRequest(req.Model, responsesPath, statusFromRespErr(resp, err), time.Since(start), 0, 0)
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"model", req.Model,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		timer := time.NewTimer(sleepFor)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = time.Duration(math.Min(float64(backoff*2), float64(30*time.Second)))
	}
	return fmt.Errorf("unreachable retry loop")
}

func statusFromResp(resp *http.Response) string {
	if resp == nil {
		return "unknown"
	}
	return strconv.Itoa(resp.StatusCode)
}

func statusFromRespErr(resp *http.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	var httpErr *openAIHTTPError
	if errors.As(err, &httpErr) {
		return strconv.Itoa(httpErr.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
