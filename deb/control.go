package deb

import (
	"archive/tar"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

// Maintainer identifies the person building the package. When both parts are
// set it overrides the Maintainer field of the control file.
type Maintainer struct {
	Name  string
	Email string
}

func (m Maintainer) isSet() bool { return m.Name != "" && m.Email != "" }

// String formats the maintainer as "Name <email>".
func (m Maintainer) String() string {
	return fmt.Sprintf("%s <%s>", m.Name, m.Email)
}

// controlBuilder writes control.tar.gz.
type controlBuilder struct {
	fs           afero.Fs
	substitution Substitution
	maintainer   Maintainer
	now          time.Time
	logger       *slog.Logger
	listener     Listener
}

// maintainerFile is a maintainer script or conffiles list, held until the
// descriptor has been parsed.
type maintainerFile struct {
	name    string
	content string
}

// build writes the control archive for the given control files to w.
// The archive is complete when the descriptor is validated, so an
// *InvalidDescriptorError comes with the archive already written.
func (b *controlBuilder) build(files []string, data DataResult, w io.Writer) (*Descriptor, error) {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	var descriptor *Descriptor
	var deferred []maintainerFile

	for _, path := range files {
		info, err := b.fs.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("control file %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		name := filepath.Base(path)
		switch {
		case isMaintainerFile(name):
			content, err := afero.ReadFile(b.fs, path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
			text := b.substitution.Replace(string(content))
			if ControlFile(name) == FileConffiles {
				if text, err = b.substitution.replaceConffiles(string(content)); err != nil {
					return nil, fmt.Errorf("parsing %s: %w", path, err)
				}
			}
			deferred = append(deferred, maintainerFile{name: name, content: text})
		case ControlFile(name) == FileControl:
			if descriptor, err = b.parseDescriptor(path); err != nil {
				return nil, err
			}
		default:
			if err := b.copyEntry(tw, name, path, info.Size()); err != nil {
				return nil, fmt.Errorf("writing %s: %w", name, err)
			}
		}
	}

	if descriptor == nil {
		return nil, fmt.Errorf("%w in %v", ErrMissingControl, files)
	}
	descriptor.Set(FieldInstalledSize, strconv.FormatUint(data.Size/1024, 10))

	for _, f := range deferred {
		if err := b.writeEntry(tw, f.name, []byte(f.content)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.name, err)
		}
	}
	if err := b.writeEntry(tw, string(FileControl), []byte(descriptor.String())); err != nil {
		return nil, fmt.Errorf("writing %s: %w", FileControl, err)
	}
	if err := b.writeEntry(tw, string(FileMd5sums), []byte(data.Checksums.String())); err != nil {
		return nil, fmt.Errorf("writing %s: %w", FileMd5sums, err)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing control tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing control gzip: %w", err)
	}

	b.listener.Emit(EventControlBuilt{
		Package:       descriptor.Value(FieldPackage),
		Version:       descriptor.Value(FieldVersion),
		InstalledSize: descriptor.Value(FieldInstalledSize),
	})

	if err := descriptor.validate(requiredPackageFields); err != nil {
		return descriptor, err
	}
	return descriptor, nil
}

// parseDescriptor reads the control file and fills in the defaults.
func (b *controlBuilder) parseDescriptor(path string) (*Descriptor, error) {
	content, err := afero.ReadFile(b.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	d, err := ParseDescriptor(b.substitution.Replace(string(content)))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if !d.Has(FieldDate) {
		// RFC 2822, e.g. "Mon, 26 Mar 2007 11:44:04 +0200".
		d.Set(FieldDate, b.now.Format(time.RFC1123Z))
	}
	if !d.Has(FieldDistribution) {
		d.Set(FieldDistribution, "unknown")
	}
	if !d.Has(FieldUrgency) {
		d.Set(FieldUrgency, "low")
	}
	if b.maintainer.isSet() {
		d.Set(FieldMaintainer, b.maintainer.String())
		b.logger.Info("using maintainer from the environment", "maintainer", b.maintainer.String())
	}
	return d, nil
}

func (b *controlBuilder) header(name string, size int64) *tar.Header {
	return &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     "./" + name,
		Size:     size,
		Mode:     controlEntryMode,
		Uname:    rootUser,
		Gname:    rootUser,
		ModTime:  b.now,
	}
}

func (b *controlBuilder) writeEntry(tw *tar.Writer, name string, content []byte) error {
	if err := tw.WriteHeader(b.header(name, int64(len(content)))); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

// copyEntry streams a control file into the archive unchanged.
func (b *controlBuilder) copyEntry(tw *tar.Writer, name, path string, size int64) error {
	f, err := b.fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := tw.WriteHeader(b.header(name, size)); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
