// Package workspace deterministically derives a CodebaseContext from a
// repository's file tree, marker-file contents, and metadata. It makes
// no LLM calls.
package workspace

import (
	"github.com/promptforge/core/internal/context"
)

// Input is the raw repository signal the extractor consumes.
type Input struct {
	// FileTree lists every path in the repository, in traversal order.
	FileTree []string
	// FileContents maps a marker filename to its content, for the
	// subset of files the caller chose to read (package manifests,
	// linter configs, README).
	FileContents map[string]string
	// RepoMetadata is host-supplied metadata (e.g. a VCS provider's
	// reported primary language).
	RepoMetadata map[string]any
}

// Extract derives a CodebaseContext from input. It never calls an LLM;
// every signal comes from file presence, file content, and metadata.
func Extract(input Input) *context.CodebaseContext {
	lang := detectLanguage(input)
	framework, _ := detectFramework(input)
	conventions := detectConventions(input)
	patterns := detectPatterns(input.FileTree)

	var docs []string
	if readme := extractReadme(input.FileContents); readme != "" {
		docs = []string{readme}
	}

	return &context.CodebaseContext{
		Language:      lang,
		Framework:     framework,
		Conventions:   conventions,
		Patterns:      patterns,
		Documentation: docs,
	}
}
