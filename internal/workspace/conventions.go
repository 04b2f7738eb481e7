package workspace

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// lintMarkers maps a config filename to the convention label reported
// when only its presence (not content) is known.
var lintMarkers = []markerLang{
	{"tsconfig.json", "TypeScript configured"},
	{".eslintrc.json", "ESLint configured"},
	{".eslintrc.js", "ESLint configured"},
	{"ruff.toml", "ruff configured"},
	{".prettierrc", "Prettier configured"},
	{".prettierrc.json", "Prettier configured"},
}

var tsStrictRe = regexp.MustCompile(`"strict"\s*:\s*true`)
var tsTargetRe = regexp.MustCompile(`"target"\s*:\s*"([^"]+)"`)
var tsModuleRe = regexp.MustCompile(`"module"\s*:\s*"([^"]+)"`)

var ruffLineLengthRe = regexp.MustCompile(`line-length\s*=\s*(\d+)`)
var ruffTargetVersionRe = regexp.MustCompile(`target-version\s*=\s*"([^"]+)"`)

var prettierSemiRe = regexp.MustCompile(`"semi"\s*:\s*(true|false)`)
var prettierQuoteRe = regexp.MustCompile(`"singleQuote"\s*:\s*(true|false)`)
var prettierTabWidthRe = regexp.MustCompile(`"tabWidth"\s*:\s*(\d+)`)

// detectConventions scans for linter/formatter config presence, and
// when the actual content is available, parses it for richer detail.
func detectConventions(input Input) []string {
	present := presentFiles(input.FileTree)
	var conventions []string

	for _, marker := range lintMarkers {
		if present[marker.marker] {
			conventions = append(conventions, marker.lang)
		}
	}

	if content, ok := input.FileContents["tsconfig.json"]; ok {
		conventions = append(conventions, parseTSConfig(content)...)
	}
	if content, ok := findRuffConfig(input.FileContents); ok {
		conventions = append(conventions, parseRuffConfig(content)...)
	}
	if content, ok := findPrettierConfig(input.FileContents); ok {
		conventions = append(conventions, parsePrettierConfig(content)...)
	}

	return conventions
}

func parseTSConfig(content string) []string {
	var out []string
	if tsStrictRe.MatchString(content) {
		out = append(out, "TypeScript strict mode")
	}
	if m := tsTargetRe.FindStringSubmatch(content); m != nil {
		out = append(out, fmt.Sprintf("TypeScript target %s", m[1]))
	}
	if m := tsModuleRe.FindStringSubmatch(content); m != nil {
		out = append(out, fmt.Sprintf("TypeScript module %s", m[1]))
	}
	return out
}

func findRuffConfig(contents map[string]string) (string, bool) {
	if c, ok := contents["ruff.toml"]; ok {
		return c, true
	}
	if c, ok := contents["pyproject.toml"]; ok && strings.Contains(c, "[tool.ruff]") {
		return c, true
	}
	return "", false
}

func parseRuffConfig(content string) []string {
	var out []string
	if m := ruffLineLengthRe.FindStringSubmatch(content); m != nil {
		out = append(out, fmt.Sprintf("ruff line-length %s", m[1]))
	}
	if m := ruffTargetVersionRe.FindStringSubmatch(content); m != nil {
		out = append(out, fmt.Sprintf("ruff target-version %s", m[1]))
	}
	return out
}

func findPrettierConfig(contents map[string]string) (string, bool) {
	for _, name := range []string{".prettierrc", ".prettierrc.json"} {
		if c, ok := contents[name]; ok {
			return c, true
		}
	}
	return "", false
}

func parsePrettierConfig(content string) []string {
	var out []string
	if m := prettierSemiRe.FindStringSubmatch(content); m != nil {
		if m[1] == "false" {
			out = append(out, "Prettier: no semicolons")
		} else {
			out = append(out, "Prettier: semicolons")
		}
	}
	if m := prettierQuoteRe.FindStringSubmatch(content); m != nil {
		if m[1] == "true" {
			out = append(out, "Prettier: single quotes")
		} else {
			out = append(out, "Prettier: double quotes")
		}
	}
	if m := prettierTabWidthRe.FindStringSubmatch(content); m != nil {
		out = append(out, fmt.Sprintf("Prettier: tab width %s", m[1]))
	}
	return out
}

// patternMarkers maps a directory-name signal to the architectural
// pattern it implies.
var patternMarkers = []markerLang{
	{"services", "service layer"},
	{"repositories", "repository pattern"},
	{"components", "component-based UI"},
	{"hooks", "hooks pattern"},
}

var infraMarkers = []markerLang{
	{"Dockerfile", "containerized (Docker)"},
	{"docker-compose.yml", "multi-service composition (docker-compose)"},
	{"lerna.json", "monorepo (Lerna)"},
	{"pnpm-workspace.yaml", "monorepo (pnpm workspaces)"},
}

func detectPatterns(fileTree []string) []string {
	dirs := make(map[string]bool)
	hasSrc, hasTests, hasWorkflows := false, false, false

	for _, path := range fileTree {
		dir := strings.ToLower(filepath.Dir(path))
		for _, part := range strings.Split(dir, string(filepath.Separator)) {
			dirs[part] = true
			if part == "src" {
				hasSrc = true
			}
			if part == "test" || part == "tests" || part == "__tests__" {
				hasTests = true
			}
		}
		if strings.Contains(filepath.ToSlash(path), ".github/workflows/") {
			hasWorkflows = true
		}
	}

	var patterns []string
	if hasSrc {
		patterns = append(patterns, "src/ layout")
	}
	for _, pm := range patternMarkers {
		if dirs[pm.marker] {
			patterns = append(patterns, pm.lang)
		}
	}
	if hasTests {
		patterns = append(patterns, "dedicated test directory")
	}
	if hasWorkflows {
		patterns = append(patterns, "CI via GitHub Actions")
	}

	present := presentFiles(fileTree)
	for _, im := range infraMarkers {
		if present[im.marker] {
			patterns = append(patterns, im.lang)
		}
	}

	return patterns
}
