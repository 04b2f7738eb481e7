package workspace

import (
	"encoding/json"
	"regexp"
	"strings"
)

type frameworkSignal struct {
	dependency string
	name       string
}

// jsFrameworkOrder is order-sensitive: meta-frameworks are checked
// before the base packages they depend on, so a Next.js project is
// reported as Next.js rather than React.
var jsFrameworkOrder = []frameworkSignal{
	{"next", "Next.js"},
	{"@sveltejs/kit", "SvelteKit"},
	{"nuxt", "Nuxt"},
	{"react", "React"},
	{"svelte", "Svelte"},
	{"vue", "Vue"},
	{"express", "Express"},
	{"@nestjs/core", "NestJS"},
	{"fastify", "Fastify"},
}

var pyFrameworkOrder = []frameworkSignal{
	{"fastapi", "FastAPI"},
	{"django", "Django"},
	{"flask", "Flask"},
	{"celery", "Celery"},
	{"sqlalchemy", "SQLAlchemy"},
}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// detectFramework reports the framework name and its declared version
// (with range prefixes like ^, ~, >= stripped), preferring package.json
// dependencies over pyproject.toml's.
func detectFramework(input Input) (string, string) {
	if content, ok := input.FileContents["package.json"]; ok {
		if name, version, ok := detectJSFramework(content); ok {
			return name, version
		}
	}
	if content, ok := input.FileContents["pyproject.toml"]; ok {
		if name, version, ok := detectPyFramework(content); ok {
			return name, version
		}
	}
	return "", ""
}

func detectJSFramework(content string) (string, string, bool) {
	var pkg packageJSON
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return "", "", false
	}

	deps := make(map[string]string, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for k, v := range pkg.Dependencies {
		deps[k] = v
	}
	for k, v := range pkg.DevDependencies {
		if _, exists := deps[k]; !exists {
			deps[k] = v
		}
	}

	for _, sig := range jsFrameworkOrder {
		if v, ok := deps[sig.dependency]; ok {
			return sig.name, stripVersionPrefix(v), true
		}
	}
	return "", "", false
}

// dependencyArrayRe extracts the contents of a TOML `dependencies = [...]`
// array without a full TOML parse, per spec.
var dependencyArrayRe = regexp.MustCompile(`(?s)dependencies\s*=\s*\[(.*?)\]`)
var dependencyItemRe = regexp.MustCompile(`"([^"]+)"`)

func detectPyFramework(content string) (string, string, bool) {
	match := dependencyArrayRe.FindStringSubmatch(content)
	if match == nil {
		return "", "", false
	}

	items := dependencyItemRe.FindAllStringSubmatch(match[1], -1)
	for _, sig := range pyFrameworkOrder {
		for _, item := range items {
			name, version, found := splitPyDependency(item[1])
			if found && strings.EqualFold(name, sig.dependency) {
				return sig.name, version, true
			}
		}
	}
	return "", "", false
}

// splitPyDependency splits a PEP 508-ish dependency spec like
// "fastapi>=0.100.0" into its name and version.
func splitPyDependency(spec string) (name, version string, ok bool) {
	for _, sep := range []string{">=", "<=", "==", "~=", "!=", ">", "<"} {
		if idx := strings.Index(spec, sep); idx > 0 {
			return strings.TrimSpace(spec[:idx]), stripVersionPrefix(spec[idx+len(sep):]), true
		}
	}
	return strings.TrimSpace(spec), "", true
}

func stripVersionPrefix(v string) string {
	v = strings.TrimSpace(v)
	for _, prefix := range []string{"^", "~", ">=", "<=", "==", "~=", ">", "<"} {
		if strings.HasPrefix(v, prefix) {
			return strings.TrimSpace(v[len(prefix):])
		}
	}
	return v
}
