package strategy

import "regexp"

// specificityPatterns flag weaknesses that indicate the prompt lacks
// detail; matched case-insensitively on word boundaries.
var specificityPatterns = []string{
	"lacks specific", "not specific", "vague", "unspecific", "lack of detail",
	"ambiguous", "unclear", "underspecified", "too broad", "too general",
	"needs more detail", "insufficiently detailed", "broad scope",
}

var specificityRe = compileWordBoundaryAlternation(specificityPatterns)

// strengthRedundancyPatterns list, per strategy, the phrases that
// indicate a prompt already exhibits what the strategy would add.
var strengthRedundancyPatterns = map[Strategy][]string{
	CoStar:              {"clear context", "well-defined audience", "specifies tone", "context and objective"},
	Risen:               {"clear role and instructions", "end-goal defined", "narrowing constraints"},
	ChainOfThought:      {"step-by-step", "numbered steps", "sequential reasoning", "chain of thought"},
	FewShotScaffolding:  {"includes examples", "provides examples", "has examples", "example-driven"},
	RoleTaskFormat:      {"clear role definition", "task and format specified", "role-task structure"},
	StructuredOutput:    {"well-structured", "clear format", "good organization", "well-organized", "clear structure", "good formatting"},
	StepByStep:          {"numbered steps", "sequential instructions", "ordered steps"},
	ConstraintInjection: {"explicit constraints", "clear constraints", "well-defined boundaries", "specific requirements"},
	ContextEnrichment:   {"rich context", "background provided", "domain context included"},
	PersonaAssignment:   {"expert persona", "assigns a role", "defines a role", "clear role definition"},
}

var strengthRedundancyRe = func() map[Strategy]*regexp.Regexp {
	m := make(map[Strategy]*regexp.Regexp, len(strengthRedundancyPatterns))
	for s, patterns := range strengthRedundancyPatterns {
		m[s] = compileWordBoundaryAlternation(patterns)
	}
	return m
}()

func compileWordBoundaryAlternation(patterns []string) *regexp.Regexp {
	expr := ""
	for i, p := range patterns {
		if i > 0 {
			expr += "|"
		}
		expr += `\b` + regexp.QuoteMeta(p) + `\b`
	}
	return regexp.MustCompile(`(?i)` + expr)
}

func countSpecificityMatches(weaknesses []string) int {
	count := 0
	for _, w := range weaknesses {
		if specificityRe.MatchString(w) {
			count++
		}
	}
	return count
}

func anyMatchesRedundancy(strategy Strategy, strengths []string) bool {
	re, ok := strengthRedundancyRe[strategy]
	if !ok {
		return false
	}
	for _, s := range strengths {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
