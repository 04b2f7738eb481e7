package pipeline

import (
	"sync"

	"github.com/promptforge/core/internal/providers"
)

// tokenBudget is one of two process-wide mutable singletons in this
// codebase (the other is providers.WhichClaudeCached). It tracks
// cumulative token usage per model across every pipeline run in the
// process, independent of any one PipelineResult.
var tokenBudget = struct {
	mu    sync.Mutex
	usage map[string]int
}{usage: make(map[string]int)}

// RecordUsage adds usage's total tokens (input + output; cache fields
// are accounting detail, not spend) to the running total for model.
func RecordUsage(model string, usage providers.TokenUsage) {
	total := 0
	if usage.InputTokens != nil {
		total += *usage.InputTokens
	}
	if usage.OutputTokens != nil {
		total += *usage.OutputTokens
	}
	if total == 0 {
		return
	}
	tokenBudget.mu.Lock()
	defer tokenBudget.mu.Unlock()
	tokenBudget.usage[model] += total
}

// TotalTokensForModel returns the cumulative recorded token count for
// model since process start (or the last ResetTokenBudget call).
func TotalTokensForModel(model string) int {
	tokenBudget.mu.Lock()
	defer tokenBudget.mu.Unlock()
	return tokenBudget.usage[model]
}

// ResetTokenBudget clears all recorded usage. Exposed for tests.
func ResetTokenBudget() {
	tokenBudget.mu.Lock()
	defer tokenBudget.mu.Unlock()
	tokenBudget.usage = make(map[string]int)
}
