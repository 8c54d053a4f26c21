package deb

import (
	"bufio"
	"fmt"
	"strings"
)

// Resolver looks up the value of a variable.
type Resolver interface {
	Get(name string) (string, bool)
}

// MapResolver resolves variables from a map.
type MapResolver map[string]string

// Get implements Resolver.
func (m MapResolver) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Substitution replaces variables such as [[version]] in control files.
type Substitution struct {
	Open     string
	Close    string
	Resolver Resolver
}

// DefaultSubstitution uses the "[[" and "]]" tokens and resolves nothing.
func DefaultSubstitution() Substitution {
	return Substitution{Open: "[[", Close: "]]"}
}

// Replace substitutes every known variable in s.
// Unknown variables and unterminated tokens are kept as they are.
func (s Substitution) Replace(text string) string {
	if s.Resolver == nil || s.Open == "" || s.Close == "" {
		return text
	}
	var b strings.Builder
	for {
		start := strings.Index(text, s.Open)
		if start < 0 {
			break
		}
		end := strings.Index(text[start+len(s.Open):], s.Close)
		if end < 0 {
			break
		}
		end += start + len(s.Open)

		name := text[start+len(s.Open) : end]
		b.WriteString(text[:start])
		if v, ok := s.Resolver.Get(name); ok {
			b.WriteString(v)
		} else {
			b.WriteString(text[start : end+len(s.Close)])
		}
		text = text[end+len(s.Close):]
	}
	b.WriteString(text)
	return b.String()
}

// replaceConffiles substitutes variables in a conffiles list. Every line
// names a file, so an empty line is an error.
func (s Substitution) replaceConffiles(content string) (string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(strings.NewReader(content))
	line := 0
	for sc.Scan() {
		line++
		if sc.Text() == "" {
			return "", fmt.Errorf("%s: empty line %d", FileConffiles, line)
		}
		b.WriteString(s.Replace(sc.Text()))
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}
