package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguageDualStack(t *testing.T) {
	input := Input{FileTree: []string{"go.mod", "frontend/package.json", "frontend/tsconfig.json"}}
	assert.Equal(t, "Go (backend) / TypeScript (frontend)", detectLanguage(input))
}

func TestDetectLanguageDualStackDowngradesWithoutTSConfig(t *testing.T) {
	input := Input{FileTree: []string{"go.mod", "frontend/package.json"}}
	assert.Equal(t, "Go (backend) / JavaScript (frontend)", detectLanguage(input))
}

func TestDetectLanguageFromRepoMetadata(t *testing.T) {
	input := Input{RepoMetadata: map[string]any{"language": "Elixir"}}
	assert.Equal(t, "Elixir", detectLanguage(input))
}

func TestDetectLanguageFirstMarkerFile(t *testing.T) {
	input := Input{FileTree: []string{"README.md", "go.mod", "main.go"}}
	assert.Equal(t, "Go", detectLanguage(input))
}

func TestDetectLanguageExtensionFrequencyFallback(t *testing.T) {
	input := Input{FileTree: []string{"a.py", "b.py", "c.rs"}}
	assert.Equal(t, "Python", detectLanguage(input))
}

func TestDetectJSFrameworkPrefersMetaFrameworkOverBase(t *testing.T) {
	pkg := `{"dependencies": {"next": "13.4.0", "react": "18.2.0"}}`
	name, version, ok := detectJSFramework(pkg)
	assert.True(t, ok)
	assert.Equal(t, "Next.js", name)
	assert.Equal(t, "13.4.0", version)
}

func TestDetectJSFrameworkStripsVersionPrefix(t *testing.T) {
	pkg := `{"dependencies": {"react": "^18.2.0"}}`
	_, version, ok := detectJSFramework(pkg)
	assert.True(t, ok)
	assert.Equal(t, "18.2.0", version)
}

func TestDetectPyFrameworkFromDependenciesArray(t *testing.T) {
	toml := "[project]\ndependencies = [\n  \"fastapi>=0.100.0\",\n  \"pydantic~=2.0\",\n]\n"
	name, version, ok := detectPyFramework(toml)
	assert.True(t, ok)
	assert.Equal(t, "FastAPI", name)
	assert.Equal(t, "0.100.0", version)
}

func TestDetectConventionsParsesTSConfigStrictMode(t *testing.T) {
	input := Input{
		FileTree: []string{"tsconfig.json"},
		FileContents: map[string]string{
			"tsconfig.json": `{"compilerOptions": {"strict": true, "target": "ES2020"}}`,
		},
	}
	conventions := detectConventions(input)
	assert.Contains(t, conventions, "TypeScript strict mode")
	assert.Contains(t, conventions, "TypeScript target ES2020")
}

func TestDetectPatternsFindsServiceAndRepositoryLayers(t *testing.T) {
	patterns := detectPatterns([]string{
		"src/services/user_service.go",
		"src/repositories/user_repo.go",
		"tests/user_test.go",
		"Dockerfile",
		".github/workflows/ci.yml",
	})

	assert.Contains(t, patterns, "service layer")
	assert.Contains(t, patterns, "repository pattern")
	assert.Contains(t, patterns, "dedicated test directory")
	assert.Contains(t, patterns, "containerized (Docker)")
	assert.Contains(t, patterns, "CI via GitHub Actions")
}

func TestExtractReadmeStripsHTMLAndTruncates(t *testing.T) {
	long := make([]byte, 4000)
	for i := range long {
		long[i] = 'x'
	}
	contents := map[string]string{"README.md": "<h1>Title</h1>" + string(long)}

	readme := extractReadme(contents)
	assert.NotContains(t, readme, "<h1>")
	assert.LessOrEqual(t, len(readme), maxReadmeChars)
}

func TestExtractRunsFullPipeline(t *testing.T) {
	ctx := Extract(Input{
		FileTree: []string{"go.mod", "README.md"},
		FileContents: map[string]string{
			"README.md": "# My Project",
		},
	})

	assert.Equal(t, "Go", ctx.Language)
	assert.Equal(t, []string{"# My Project"}, ctx.Documentation)
}
