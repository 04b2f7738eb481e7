package strategy

// Combo is a primary framework plus up to two secondary frameworks
// assigned to an analyzer task_type.
type Combo struct {
	Primary   Strategy
	Secondary []Strategy
}

// taskTypeCombos maps each analyzer task_type to its 3-framework combo.
var taskTypeCombos = map[string]Combo{
	"coding":         {StructuredOutput, []Strategy{ConstraintInjection, StepByStep}},
	"writing":        {PersonaAssignment, []Strategy{ContextEnrichment, CoStar}},
	"creative":       {PersonaAssignment, []Strategy{CoStar, ContextEnrichment}},
	"reasoning":      {ChainOfThought, []Strategy{StructuredOutput, CoStar}},
	"analysis":       {ChainOfThought, []Strategy{CoStar, StructuredOutput}},
	"math":           {ChainOfThought, []Strategy{StepByStep, ConstraintInjection}},
	"extraction":     {StructuredOutput, []Strategy{FewShotScaffolding, ConstraintInjection}},
	"classification": {FewShotScaffolding, []Strategy{StructuredOutput, ConstraintInjection}},
	"formatting":     {StructuredOutput, []Strategy{FewShotScaffolding, ConstraintInjection}},
	"medical":        {PersonaAssignment, []Strategy{ConstraintInjection, ContextEnrichment}},
	"legal":          {PersonaAssignment, []Strategy{ConstraintInjection, ContextEnrichment}},
	"education":      {Risen, []Strategy{StepByStep, ContextEnrichment}},
	"general":        {RoleTaskFormat, []Strategy{ContextEnrichment, StructuredOutput}},
	"other":          {Risen, []Strategy{RoleTaskFormat, ContextEnrichment}},
}

var defaultCombo = Combo{RoleTaskFormat, []Strategy{ContextEnrichment, StructuredOutput}}

func comboFor(taskType string) Combo {
	if c, ok := taskTypeCombos[taskType]; ok {
		return c
	}
	return defaultCombo
}

// cotNaturalTaskTypes are the task types for which P1 (high-complexity
// override) may fire. Other task types fall through to P2/P3 even at
// high complexity, preserving strategy diversity.
var cotNaturalTaskTypes = map[string]bool{
	"reasoning": true,
	"analysis":  true,
	"math":      true,
}

// specificityExemptStrategies already address vagueness through their
// own structure, so the P2 specificity override should not eclipse them.
var specificityExemptStrategies = map[Strategy]bool{
	ChainOfThought:     true,
	PersonaAssignment:  true,
	FewShotScaffolding: true,
	Risen:              true,
}
