package eventbus

// This file declares the nine bus contracts named in the original
// kernel event bus tests: the four application-facing
// "promptforge:*" events plus the five "kernel:job.*" events
// published by the job queue. RegisterDeclaredContracts wires all
// nine into a registry at bus construction time, so a malformed job
// or optimization event is dropped exactly like any other contract
// violation.

func schemaObject(properties map[string]any, required ...string) map[string]any {
	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

var optimizationStartedSchema = MustCompileSchema("promptforge:optimization.started", schemaObject(map[string]any{
	"optimization_id": map[string]any{"type": "string"},
	"raw_prompt":      map[string]any{"type": "string"},
	"project":         map[string]any{"type": "string"},
	"strategy":        map[string]any{"type": "string"},
}, "optimization_id", "raw_prompt"))

var optimizationCompletedSchema = MustCompileSchema("promptforge:optimization.completed", schemaObject(map[string]any{
	"optimization_id": map[string]any{"type": "string"},
	"overall_score":   map[string]any{"type": "number"},
	"strategy":        map[string]any{"type": "string"},
	"project":         map[string]any{"type": "string"},
	"duration_ms":     map[string]any{"type": "number"},
}, "optimization_id", "overall_score", "strategy", "duration_ms"))

var promptCreatedSchema = MustCompileSchema("promptforge:prompt.created", schemaObject(map[string]any{
	"prompt_id": map[string]any{"type": "string"},
	"project":   map[string]any{"type": "string"},
	"name":      map[string]any{"type": "string"},
}, "prompt_id"))

var promptUpdatedSchema = MustCompileSchema("promptforge:prompt.updated", schemaObject(map[string]any{
	"prompt_id": map[string]any{"type": "string"},
	"version":   map[string]any{"type": "number"},
}, "prompt_id"))

var jobSubmittedSchema = MustCompileSchema("kernel:job.submitted", schemaObject(map[string]any{
	"job_id":   map[string]any{"type": "string"},
	"job_type": map[string]any{"type": "string"},
	"priority": map[string]any{"type": "number"},
}, "job_id", "job_type"))

var jobStartedSchema = MustCompileSchema("kernel:job.started", schemaObject(map[string]any{
	"job_id": map[string]any{"type": "string"},
}, "job_id"))

var jobProgressSchema = MustCompileSchema("kernel:job.progress", schemaObject(map[string]any{
	"job_id":   map[string]any{"type": "string"},
	"progress": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
}, "job_id", "progress"))

var jobCompletedSchema = MustCompileSchema("kernel:job.completed", schemaObject(map[string]any{
	"job_id": map[string]any{"type": "string"},
	"result": map[string]any{"type": "object"},
}, "job_id"))

var jobFailedSchema = MustCompileSchema("kernel:job.failed", schemaObject(map[string]any{
	"job_id": map[string]any{"type": "string"},
	"reason": map[string]any{"type": "string"},
}, "job_id"))

// RegisterDeclaredContracts registers all nine declared bus contracts
// on registry. sourceApp scopes the four application-facing
// "promptforge:*" contracts to the given origin app id; the five
// "kernel:job.*" contracts always originate from the job queue
// itself, identified as "kernel".
func RegisterDeclaredContracts(registry *ContractRegistry, sourceApp string) {
	registry.Register(EventContract{EventType: "promptforge:optimization.started", SourceApp: sourceApp, PayloadSchema: optimizationStartedSchema})
	registry.Register(EventContract{EventType: "promptforge:optimization.completed", SourceApp: sourceApp, PayloadSchema: optimizationCompletedSchema})
	registry.Register(EventContract{EventType: "promptforge:prompt.created", SourceApp: sourceApp, PayloadSchema: promptCreatedSchema})
	registry.Register(EventContract{EventType: "promptforge:prompt.updated", SourceApp: sourceApp, PayloadSchema: promptUpdatedSchema})

	registry.Register(EventContract{EventType: "kernel:job.submitted", SourceApp: "kernel", PayloadSchema: jobSubmittedSchema})
	registry.Register(EventContract{EventType: "kernel:job.started", SourceApp: "kernel", PayloadSchema: jobStartedSchema})
	registry.Register(EventContract{EventType: "kernel:job.progress", SourceApp: "kernel", PayloadSchema: jobProgressSchema})
	registry.Register(EventContract{EventType: "kernel:job.completed", SourceApp: "kernel", PayloadSchema: jobCompletedSchema})
	registry.Register(EventContract{EventType: "kernel:job.failed", SourceApp: "kernel", PayloadSchema: jobFailedSchema})
}
