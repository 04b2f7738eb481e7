package eventbus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema wraps a compiled JSON Schema document used to validate event
// payloads and responses declared by a contract.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// CompileSchema compiles a JSON Schema document (as a decoded
// map[string]any, matching how contracts are authored inline in Go)
// into a Schema usable for validation.
func CompileSchema(name string, doc map[string]any) (*Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("eventbus: marshal schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("eventbus: add schema resource %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("eventbus: compile schema %s: %w", name, err)
	}

	return &Schema{raw: doc, compiled: compiled}, nil
}

// MustCompileSchema is CompileSchema for use in package-level var
// initializers, where a malformed literal schema is a programmer
// error that should fail fast.
func MustCompileSchema(name string, doc map[string]any) *Schema {
	s, err := CompileSchema(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks data against the schema. A nil Schema accepts any
// payload.
func (s *Schema) Validate(data map[string]any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	return s.compiled.Validate(data)
}

// AsMap returns the original schema document, used for the
// /internal/contracts introspection endpoint.
func (s *Schema) AsMap() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// EventContract declares the expected payload (and, for request/reply
// events, response) shape for one event type, plus which app is
// expected to originate it.
type EventContract struct {
	EventType      string
	SourceApp      string
	PayloadSchema  *Schema
	ResponseSchema *Schema
}

// ContractRegistry holds every declared EventContract, keyed by event
// type. It is safe for concurrent use.
type ContractRegistry struct {
	mu        sync.RWMutex
	contracts map[string]EventContract
}

// NewContractRegistry returns an empty registry.
func NewContractRegistry() *ContractRegistry {
	return &ContractRegistry{contracts: make(map[string]EventContract)}
}

// Register declares contract for its EventType. Registering a second
// contract for an already-declared event type overwrites the first,
// logging a warning: later registrations are assumed intentional
// (e.g. a reloaded config) but are unusual enough to be worth noting.
func (r *ContractRegistry) Register(contract EventContract) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contracts[contract.EventType]; exists {
		slog.Warn("overwriting existing event contract", "event_type", contract.EventType)
	}
	r.contracts[contract.EventType] = contract
}

// Lookup returns the declared contract for eventType, if any.
func (r *ContractRegistry) Lookup(eventType string) (EventContract, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[eventType]
	return c, ok
}

// contractSummary is the JSON shape returned by the
// /internal/contracts introspection endpoint.
type contractSummary struct {
	EventType      string         `json:"event_type"`
	SourceApp      string         `json:"source_app"`
	PayloadSchema  map[string]any `json:"payload_schema,omitempty"`
	ResponseSchema map[string]any `json:"response_schema,omitempty"`
}

// Describe returns every declared contract in a JSON-serializable
// form, sorted by event type, for the /internal/contracts endpoint.
func (r *ContractRegistry) Describe() []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.contracts))
	for t := range r.contracts {
		types = append(types, t)
	}
	sort.Strings(types)

	out := make([]map[string]any, 0, len(types))
	for _, t := range types {
		c := r.contracts[t]
		summary := contractSummary{
			EventType:      c.EventType,
			SourceApp:      c.SourceApp,
			PayloadSchema:  c.PayloadSchema.AsMap(),
			ResponseSchema: c.ResponseSchema.AsMap(),
		}
		b, err := json.Marshal(summary)
		if err != nil {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}
