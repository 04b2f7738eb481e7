package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TokenUsage accumulates token counts across one or more provider
// calls. All fields are optional; addition treats a missing field as
// zero, and the sum is nil only when both operands were nil.
type TokenUsage struct {
	InputTokens              *int
	OutputTokens             *int
	CacheCreationInputTokens *int
	CacheReadInputTokens     *int
}

func addOptionalInt(a, b *int) *int {
	if a == nil && b == nil {
		return nil
	}
	av, bv := 0, 0
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	sum := av + bv
	return &sum
}

// Add returns the element-wise sum of two TokenUsage values, treating
// missing fields as zero. The sum of two entirely-nil usages is itself
// entirely nil.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:              addOptionalInt(u.InputTokens, other.InputTokens),
		OutputTokens:             addOptionalInt(u.OutputTokens, other.OutputTokens),
		CacheCreationInputTokens: addOptionalInt(u.CacheCreationInputTokens, other.CacheCreationInputTokens),
		CacheReadInputTokens:     addOptionalInt(u.CacheReadInputTokens, other.CacheReadInputTokens),
	}
}

// CompletionRequest is the uniform request shape accepted by every
// Provider implementation.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// Chunk is a single piece of a streamed completion.
type Chunk struct {
	Text    string
	Done    bool
	Usage   *TokenUsage
	IsError bool
	Err     error
}

// Provider is the uniform interface every LLM backend satisfies. It is
// the only seam the Pipeline Orchestrator and Strategy Selector depend
// on; how a concrete provider authenticates and transports requests is
// opaque to the rest of the system.
type Provider interface {
	// Complete returns the model's raw text response plus token usage.
	Complete(ctx context.Context, req CompletionRequest) (text string, usage TokenUsage, err error)

	// CompleteJSON returns the model's response parsed as a JSON
	// object (via ExtractFirstJSONObject) alongside the raw text.
	CompleteJSON(ctx context.Context, req CompletionRequest) (parsed map[string]any, raw string, usage TokenUsage, err error)

	// Stream returns a channel of incremental chunks; the channel is
	// closed when the response completes or an error terminates it.
	Stream(ctx context.Context, req CompletionRequest) (<-chan Chunk, error)

	// CountTokens estimates the token count of text for this
	// provider's tokenizer.
	CountTokens(text string) int

	// Supports reports whether the provider implements an optional
	// capability (e.g. "json_mode", "streaming").
	Supports(capability string) bool

	// Name identifies the provider for logging and model_used fields.
	Name() string
}

// ConnectionTestResult reports the outcome of a provider connectivity
// probe.
type ConnectionTestResult struct {
	OK        bool
	Model     string
	LatencyMS int64
	Error     string
}

// connectionTestTimeout bounds RunConnectionTest, per the 10s budget
// named for provider connection tests.
const connectionTestTimeout = 10 * time.Second

// RunConnectionTest exercises Complete with a minimal prompt and
// reports latency and outcome, bounded by a 10 second timeout.
func RunConnectionTest(ctx context.Context, p Provider) ConnectionTestResult {
	ctx, cancel := context.WithTimeout(ctx, connectionTestTimeout)
	defer cancel()

	start := time.Now()
	_, _, err := p.Complete(ctx, CompletionRequest{
		UserPrompt: "ping",
		MaxTokens:  8,
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return ConnectionTestResult{OK: false, Model: p.Name(), LatencyMS: latency, Error: FriendlyError(err)}
	}
	return ConnectionTestResult{OK: true, Model: p.Name(), LatencyMS: latency}
}

// HTTPProvider is a generic REST-backed Provider implementation for
// any OpenAI-compatible chat-completions endpoint. It is the default
// concrete Provider wired by cmd/promptforge.
type HTTPProvider struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewHTTPProvider constructs an HTTPProvider for the given endpoint.
func NewHTTPProvider(name, baseURL, apiKey, model string) *HTTPProvider {
	return &HTTPProvider{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) Supports(capability string) bool {
	switch capability {
	case "json_mode", "streaming":
		return true
	default:
		return false
	}
}

// CountTokens approximates token count as roughly 4 characters per
// token, a coarse but dependency-free estimate used only for
// diagnostics; real accounting relies on provider-reported usage.
func (p *HTTPProvider) CountTokens(text string) int {
	return (len(text) + 3) / 4
}

type chatCompletionRequestBody struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponseBody struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// completionOutcome bundles the two values a completion call produces
// so a single attempt can flow through the generic RetryTransient helper.
type completionOutcome struct {
	text  string
	usage TokenUsage
}

// Complete implements Provider.
func (p *HTTPProvider) Complete(ctx context.Context, req CompletionRequest) (string, TokenUsage, error) {
	outcome, err := RetryTransient(ctx, DefaultMaxRetries, func(ctx context.Context) (completionOutcome, error) {
		text, usage, err := p.callOnce(ctx, req)
		return completionOutcome{text: text, usage: usage}, err
	})
	if err != nil {
		return "", TokenUsage{}, err
	}
	return outcome.text, outcome.usage, nil
}

// CompleteJSON implements Provider.
func (p *HTTPProvider) CompleteJSON(ctx context.Context, req CompletionRequest) (map[string]any, string, TokenUsage, error) {
	text, usage, err := p.Complete(ctx, req)
	if err != nil {
		return nil, "", TokenUsage{}, err
	}
	parsed, err := ExtractFirstJSONObject(text)
	if err != nil {
		return nil, text, usage, err
	}
	return parsed, text, usage, nil
}

// Stream implements Provider with a degenerate single-chunk stream
// built on top of Complete; a real streaming transport would replace
// this with an SSE or chunked-transfer reader.
func (p *HTTPProvider) Stream(ctx context.Context, req CompletionRequest) (<-chan Chunk, error) {
	ch := make(chan Chunk, 2)
	go func() {
		defer close(ch)
		text, usage, err := p.Complete(ctx, req)
		if err != nil {
			ch <- Chunk{IsError: true, Err: err, Done: true}
			return
		}
		ch <- Chunk{Text: text, Usage: &usage, Done: true}
	}()
	return ch, nil
}

func (p *HTTPProvider) callOnce(ctx context.Context, req CompletionRequest) (string, TokenUsage, error) {
	body := chatCompletionRequestBody{
		Model:       firstNonEmpty(req.Model, p.model),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.UserPrompt})

	payload, err := json.Marshal(body)
	if err != nil {
		return "", TokenUsage{}, &ProviderError{Message: fmt.Sprintf("marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", jsonReader(payload))
	if err != nil {
		return "", TokenUsage{}, &ProviderConnectionError{ProviderError{Message: err.Error()}}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", TokenUsage{}, ClassifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", TokenUsage{}, ClassifyError(fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	var parsed chatCompletionResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", TokenUsage{}, &ProviderError{Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", TokenUsage{}, &ProviderError{Message: "provider returned no choices"}
	}

	in, out := parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens
	usage := TokenUsage{InputTokens: &in, OutputTokens: &out}
	return parsed.Choices[0].Message.Content, usage, nil
}

func jsonReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
