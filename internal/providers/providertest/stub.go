// Package providertest provides a deterministic, in-memory
// implementation of providers.Provider for use in other packages'
// tests — analogous to the teacher repo's test/util helpers.
package providertest

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/promptforge/core/internal/providers"
)

// StubProvider returns scripted responses in call order. Each entry in
// Responses is returned verbatim (as text) for the corresponding call
// to Complete/CompleteJSON; once exhausted, Err (or a default error) is
// returned. Calls are recorded in Prompts for assertions.
type StubProvider struct {
	Responses []string
	Usage     providers.TokenUsage
	Err       error

	ProviderName string
	Prompts      []string
	calls        int
}

var _ providers.Provider = (*StubProvider)(nil)

func (s *StubProvider) Name() string {
	if s.ProviderName != "" {
		return s.ProviderName
	}
	return "stub"
}

func (s *StubProvider) Supports(string) bool { return true }

func (s *StubProvider) CountTokens(text string) int { return len(text) / 4 }

func (s *StubProvider) Complete(_ context.Context, req providers.CompletionRequest) (string, providers.TokenUsage, error) {
	s.Prompts = append(s.Prompts, req.UserPrompt)
	idx := s.calls
	s.calls++
	if idx >= len(s.Responses) {
		if s.Err != nil {
			return "", providers.TokenUsage{}, s.Err
		}
		return "", providers.TokenUsage{}, errors.New("stub provider exhausted")
	}
	return s.Responses[idx], s.Usage, nil
}

func (s *StubProvider) CompleteJSON(ctx context.Context, req providers.CompletionRequest) (map[string]any, string, providers.TokenUsage, error) {
	text, usage, err := s.Complete(ctx, req)
	if err != nil {
		return nil, "", providers.TokenUsage{}, err
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		parsed, extractErr := providers.ExtractFirstJSONObject(text)
		if extractErr != nil {
			return nil, text, usage, extractErr
		}
		return parsed, text, usage, nil
	}
	return obj, text, usage, nil
}

func (s *StubProvider) Stream(ctx context.Context, req providers.CompletionRequest) (<-chan providers.Chunk, error) {
	ch := make(chan providers.Chunk, 2)
	go func() {
		defer close(ch)
		text, usage, err := s.Complete(ctx, req)
		if err != nil {
			ch <- providers.Chunk{IsError: true, Err: err, Done: true}
			return
		}
		ch <- providers.Chunk{Text: text, Usage: &usage, Done: true}
	}()
	return ch, nil
}
