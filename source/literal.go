package source

import "github.com/etnz/deb-builder/deb"

// Literal is a source emitting the given directories, owned by root with
// mode 0755.
type Literal struct {
	Paths  []string
	Filter Filter
	Mapper *PermMapper
}

// Produce implements deb.Source.
func (l *Literal) Produce(s deb.Sink) error {
	e := emitter{sink: s, filter: l.Filter, mapper: l.Mapper}
	for _, p := range l.Paths {
		err := e.directory(deb.Entry{
			Name:  p,
			User:  "root",
			UID:   0,
			Group: "root",
			GID:   0,
			Mode:  0o755,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
