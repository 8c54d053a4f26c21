package source

import (
	"fmt"
	"path/filepath"

	"github.com/etnz/deb-builder/deb"
	"github.com/spf13/afero"
)

// File is a source emitting a single file, named after its base name.
// Use a PermMapper prefix to place it.
type File struct {
	Fs     afero.Fs
	Path   string
	Filter Filter
	Mapper *PermMapper
}

// Produce implements deb.Source.
func (f *File) Produce(s deb.Sink) error {
	file, err := f.Fs.Open(f.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", f.Path)
	}

	e := emitter{sink: s, filter: f.Filter, mapper: f.Mapper}
	return e.file(deb.Entry{
		Name:  filepath.Base(f.Path),
		User:  "root",
		Group: "root",
		Mode:  int64(info.Mode().Perm()),
		Size:  info.Size(),
	}, file)
}
