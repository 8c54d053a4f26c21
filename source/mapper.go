package source

import (
	"fmt"
	"path"
	"strings"

	"github.com/etnz/deb-builder/deb"
)

// PermMapper rewrites the path, ownership and mode of entries.
// A nil PermMapper leaves entries unchanged.
type PermMapper struct {
	// Prefix is prepended to the path, after Strip.
	Prefix string
	// Strip removes that many leading components from the path. Paths
	// with too few components are left as is.
	Strip int

	User  string
	UID   *int
	Group string
	GID   *int
	// FileMode and DirMode are octal strings, e.g. "644".
	FileMode string
	DirMode  string
}

func (m *PermMapper) validate() error {
	if m == nil {
		return nil
	}
	if m.Strip < 0 {
		return fmt.Errorf("negative strip %d", m.Strip)
	}
	for _, mode := range []string{m.FileMode, m.DirMode} {
		if mode == "" {
			continue
		}
		if _, err := deb.ParseMode(mode); err != nil {
			return err
		}
	}
	return nil
}

// Map returns the rewritten entry.
func (m *PermMapper) Map(e deb.Entry) (deb.Entry, error) {
	if m == nil {
		return e, nil
	}

	isDir := strings.HasSuffix(e.Name, "/")
	name := stripComponents(strings.TrimPrefix(e.Name, "./"), m.Strip)
	if m.Prefix != "" {
		name = path.Join(m.Prefix, name)
		if isDir {
			name += "/"
		}
	}
	e.Name = name

	if m.User != "" {
		e.User = m.User
	}
	if m.UID != nil {
		e.UID = *m.UID
	}
	if m.Group != "" {
		e.Group = m.Group
	}
	if m.GID != nil {
		e.GID = *m.GID
	}

	mode := m.FileMode
	if isDir {
		mode = m.DirMode
	}
	if mode != "" {
		bits, err := deb.ParseMode(mode)
		if err != nil {
			return e, err
		}
		e.Mode = bits
	}
	return e, nil
}

// stripComponents removes the first n components of p.
func stripComponents(p string, n int) string {
	if n <= 0 {
		return p
	}
	parts := strings.SplitN(p, "/", n+1)
	if len(parts) <= n {
		return p
	}
	return parts[n]
}
