package source

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/deb-builder/deb"
	"github.com/spf13/afero"
)

// Directory is a source emitting a directory tree, in lexical order. The
// root itself is not emitted and entries are named relative to it.
// Anything but directories and regular files is skipped.
type Directory struct {
	Fs     afero.Fs
	Root   string
	Filter Filter
	Mapper *PermMapper
}

// Produce implements deb.Source.
func (d *Directory) Produce(s deb.Sink) error {
	e := emitter{sink: s, filter: d.Filter, mapper: d.Mapper}
	return afero.Walk(d.Fs, d.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		entry := deb.Entry{
			Name:  filepath.ToSlash(rel),
			User:  "root",
			Group: "root",
			Mode:  int64(info.Mode().Perm()),
		}
		switch {
		case info.IsDir():
			return e.directory(entry)
		case info.Mode().IsRegular():
			entry.Size = info.Size()
			return d.emitFile(e, entry, path)
		}
		return nil
	})
}

func (d *Directory) emitFile(e emitter, entry deb.Entry, path string) error {
	f, err := d.Fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := e.file(entry, f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
