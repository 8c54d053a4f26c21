package deb

import (
	"bytes"
	"fmt"
	"strings"
)

// Descriptor is an ordered set of fields, as found in a Debian control file
// or a .changes document. Keys are case-sensitive and serialization follows
// insertion order.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#syntax-of-control-files
type Descriptor struct {
	keys   []Field
	values map[Field]string
}

// NewDescriptor returns an empty descriptor.
func NewDescriptor() *Descriptor {
	return &Descriptor{values: make(map[Field]string)}
}

// ParseDescriptor parses the content of a control file.
// Continuation lines (starting with a space or a tab) are appended to the
// current field, with their leading whitespace kept. Lines starting with '#'
// are comments.
func ParseDescriptor(content string) (*Descriptor, error) {
	d := NewDescriptor()
	var currentKey Field
	var currentValue strings.Builder

	flush := func() {
		if currentKey != "" {
			d.Set(currentKey, strings.TrimRight(currentValue.String(), " \t"))
		}
	}

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "#"):
		case strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t"):
			if currentKey == "" {
				return nil, fmt.Errorf("line %d: continuation line without a field", i+1)
			}
			currentValue.WriteString("\n" + line)
		case strings.TrimSpace(line) == "":
		default:
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: expected 'Field: value', got %q", i+1, line)
			}
			flush()
			currentKey = Field(strings.TrimSpace(key))
			currentValue.Reset()
			currentValue.WriteString(strings.TrimSpace(value))
		}
	}
	flush()
	return d, nil
}

// Get returns the value of field and whether it is present.
func (d *Descriptor) Get(field Field) (string, bool) {
	v, ok := d.values[field]
	return v, ok
}

// Value returns the value of field, or "" if absent.
func (d *Descriptor) Value(field Field) string {
	return d.values[field]
}

// Has reports whether field is present.
func (d *Descriptor) Has(field Field) bool {
	_, ok := d.values[field]
	return ok
}

// Set updates a field in place, or appends it if it is new.
func (d *Descriptor) Set(field Field, value string) {
	if _, ok := d.values[field]; !ok {
		d.keys = append(d.keys, field)
	}
	d.values[field] = value
}

// Fields returns the field names in insertion order.
func (d *Descriptor) Fields() []Field {
	return append([]Field(nil), d.keys...)
}

// Missing returns the fields of required that are absent or blank.
func (d *Descriptor) Missing(required []Field) []Field {
	var missing []Field
	for _, f := range required {
		if strings.TrimSpace(d.values[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// validate returns an *InvalidDescriptorError if a required field is missing.
func (d *Descriptor) validate(required []Field) error {
	if missing := d.Missing(required); len(missing) > 0 {
		return &InvalidDescriptorError{Descriptor: d, Missing: missing}
	}
	return nil
}

// String serializes the descriptor, one "Field: value" per line.
// A value starting with a newline is written right after the colon, so that
// its first line is empty, as Debian expects for file lists.
func (d *Descriptor) String() string {
	var b bytes.Buffer
	for _, k := range d.keys {
		v := d.values[k]
		if strings.HasPrefix(v, "\n") {
			fmt.Fprintf(&b, "%s:%s\n", k, v)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	return b.String()
}
