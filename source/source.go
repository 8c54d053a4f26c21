package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/etnz/deb-builder/deb"
	"github.com/spf13/afero"
)

// ErrMissingSource is returned when the source path does not exist and the
// source is required.
var ErrMissingSource = errors.New("data source not found")

// Type selects the kind of data source.
type Type string

const (
	TypeFile      Type = "file"
	TypeArchive   Type = "archive"
	TypeDirectory Type = "directory"
	TypeLiteral   Type = "literal"
)

// Config describes a data source.
type Config struct {
	// Type is the kind of source. When empty or unknown, a regular file is
	// read as an archive and anything else as a directory.
	Type Type
	// Src is the file, archive or directory to read.
	Src string
	// Paths lists the directories created by a literal source.
	Paths []string
	// FailOnMissing makes a missing Src an error. Otherwise the source
	// produces nothing.
	FailOnMissing bool
	Filter        Filter
	Mapper        *PermMapper
}

// New returns the source described by c. The source is resolved when it
// produces, so Src only needs to exist by then.
func New(fs afero.Fs, c Config) (deb.Source, error) {
	if c.Src == "" && len(c.Paths) == 0 {
		return nil, errors.New("src or paths not set")
	}
	if err := c.Filter.validate(); err != nil {
		return nil, err
	}
	if err := c.Mapper.validate(); err != nil {
		return nil, err
	}
	return deb.SourceFunc(func(s deb.Sink) error {
		src, err := resolve(fs, c)
		if err != nil || src == nil {
			return err
		}
		return src.Produce(s)
	}), nil
}

// resolve picks the concrete source for c. It returns nil when there is
// nothing to produce.
func resolve(fs afero.Fs, c Config) (deb.Source, error) {
	var isRegular bool
	if c.Src != "" {
		info, err := fs.Stat(c.Src)
		switch {
		case errors.Is(err, os.ErrNotExist):
			if c.FailOnMissing {
				return nil, fmt.Errorf("%w: %s", ErrMissingSource, c.Src)
			}
			return nil, nil
		case err != nil:
			return nil, err
		}
		isRegular = info.Mode().IsRegular()
	}

	switch Type(strings.ToLower(string(c.Type))) {
	case TypeFile:
		return &File{Fs: fs, Path: c.Src, Filter: c.Filter, Mapper: c.Mapper}, nil
	case TypeArchive:
		return &Archive{Fs: fs, Path: c.Src, Filter: c.Filter, Mapper: c.Mapper}, nil
	case TypeDirectory:
		return &Directory{Fs: fs, Root: c.Src, Filter: c.Filter, Mapper: c.Mapper}, nil
	case TypeLiteral:
		return &Literal{Paths: c.Paths, Filter: c.Filter, Mapper: c.Mapper}, nil
	}

	if c.Src == "" {
		return nil, fmt.Errorf("source type %q needs src", c.Type)
	}
	if isRegular {
		return &Archive{Fs: fs, Path: c.Src, Filter: c.Filter, Mapper: c.Mapper}, nil
	}
	return &Directory{Fs: fs, Root: c.Src, Filter: c.Filter, Mapper: c.Mapper}, nil
}

// Filter selects entries by their path relative to the source, e.g.
// "usr/bin/app". Patterns use the doublestar syntax; a pattern ending with
// "/" matches everything below it.
type Filter struct {
	// Includes, when not empty, keeps only the matching entries.
	Includes []string
	// Excludes drops the matching entries.
	Excludes []string
}

// Match reports whether name is selected.
func (f Filter) Match(name string) bool {
	name = strings.Trim(strings.TrimPrefix(name, "./"), "/")
	if len(f.Includes) > 0 && !matchAny(f.Includes, name) {
		return false
	}
	return !matchAny(f.Excludes, name)
}

func (f Filter) validate() error {
	for _, p := range append(append([]string(nil), f.Includes...), f.Excludes...) {
		if !doublestar.ValidatePattern(normalizePattern(p)) {
			return fmt.Errorf("invalid pattern %q", p)
		}
	}
	return nil
}

func normalizePattern(p string) string {
	p = strings.TrimPrefix(strings.TrimPrefix(p, "./"), "/")
	if strings.HasSuffix(p, "/") {
		p += "**"
	}
	return p
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(normalizePattern(p), name); err == nil && ok {
			return true
		}
	}
	return false
}

// SplitPatterns splits a list of patterns separated by commas or spaces.
func SplitPatterns(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

// emitter filters and maps entries on their way to a sink.
type emitter struct {
	sink   deb.Sink
	filter Filter
	mapper *PermMapper
}

func (e emitter) directory(entry deb.Entry) error {
	if !strings.HasSuffix(entry.Name, "/") {
		entry.Name += "/"
	}
	if !e.filter.Match(entry.Name) {
		return nil
	}
	entry, err := e.mapper.Map(entry)
	if err != nil {
		return err
	}
	return e.sink.Directory(entry)
}

func (e emitter) file(entry deb.Entry, r io.Reader) error {
	if !e.filter.Match(entry.Name) {
		return nil
	}
	entry, err := e.mapper.Map(entry)
	if err != nil {
		return err
	}
	return e.sink.File(entry, r)
}
