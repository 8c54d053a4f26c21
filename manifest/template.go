package manifest

import (
	"maps"
	"strings"
	"text/template"
)

// templateEngine handles text template rendering with variable substitution.
// Its definitions also resolve the [[name]] variables of control files.
type templateEngine struct {
	defines map[string]string
	funcs   template.FuncMap
}

// newTemplateEngine creates a new engine with the provided global definitions.
func newTemplateEngine(defines map[string]string) *templateEngine {
	return &templateEngine{
		defines: maps.Clone(defines),
		funcs: template.FuncMap{
			"lower":      strings.ToLower,
			"upper":      strings.ToUpper,
			"replace":    strings.ReplaceAll,
			"trimPrefix": func(prefix, s string) string { return strings.TrimPrefix(s, prefix) },
			"trimSuffix": func(suffix, s string) string { return strings.TrimSuffix(s, suffix) },
			"default": func(def, s string) string {
				if s == "" {
					return def
				}
				return s
			},
		},
	}
}

// sub creates a new templateEngine that inherits the parent's definitions
// and adds (or overrides) them with the provided local definitions.
func (e *templateEngine) sub(locals map[string]string) *templateEngine {
	newDefines := maps.Clone(e.defines)
	if newDefines == nil {
		newDefines = make(map[string]string)
	}
	maps.Copy(newDefines, locals)
	return &templateEngine{
		defines: newDefines,
		funcs:   e.funcs,
	}
}

// Get returns a definition. It makes the engine a deb.Resolver.
func (e *templateEngine) Get(name string) (string, bool) {
	v, ok := e.defines[name]
	return v, ok
}

// render executes the provided text as a template using the engine's definitions.
// If the text does not contain "{{", it is returned as-is.
func (e *templateEngine) render(name, text string) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	t, err := template.New(name).Funcs(e.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := t.Execute(&buf, e.defines); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderAll renders every element of texts.
func (e *templateEngine) renderAll(name string, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		v, err := e.render(name, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
