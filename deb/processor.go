package deb

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/blakesmith/ar"
	"github.com/spf13/afero"
)

// Processor builds .deb packages and .changes documents.
//
// A Processor only holds configuration. Each call works on its own
// temporary files, but a Processor is not meant to be shared by concurrent
// builds.
type Processor struct {
	// Fs is where control files are read and every file is written.
	Fs afero.Fs
	// TempDir is where the intermediate archives are written. Empty means
	// the default temporary directory.
	TempDir string
	// Substitution replaces variables in the control file and maintainer scripts.
	Substitution Substitution
	// Maintainer, when complete, overrides the Maintainer of the control file.
	Maintainer Maintainer
	// Signer clear-signs .changes documents.
	Signer Signer
	// Logger receives diagnostics.
	Logger *slog.Logger
	// Listener receives progress events.
	Listener Listener
	// Now returns the build time, used for the Date field and entry times.
	Now func() time.Time
}

// NewProcessor returns a Processor working on fs with default settings.
func NewProcessor(fs afero.Fs) *Processor {
	return &Processor{
		Fs:           fs,
		Substitution: DefaultSubstitution(),
		Signer:       OpenPGPSigner{},
		Logger:       slog.Default(),
		Now:          time.Now,
	}
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Processor) now() time.Time {
	if p.Now == nil {
		return time.Now().Truncate(time.Second)
	}
	return p.Now().Truncate(time.Second)
}

// CreateDeb builds the package at output from the control files and the
// data sources, and returns the package descriptor completed with the MD5,
// SHA1, SHA256, Size and File fields.
//
// An invalid control file is reported as an *InvalidDescriptorError; every
// other failure is a *PackagingError.
func (p *Processor) CreateDeb(controlFiles []string, sources []Source, output string, c Compression) (d *Descriptor, err error) {
	fs := p.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	tempData, err := afero.TempFile(fs, p.TempDir, "deb-data-*")
	if err != nil {
		return nil, &PackagingError{Msg: "could not create deb package", Err: err}
	}
	defer p.removeTemp(fs, tempData.Name(), &d, &err)

	tempControl, err := afero.TempFile(fs, p.TempDir, "deb-control-*")
	if err != nil {
		tempData.Close()
		return nil, &PackagingError{Msg: "could not create deb package", Err: err}
	}
	defer p.removeTemp(fs, tempControl.Name(), &d, &err)

	d, err = p.createDeb(fs, tempData, tempControl, controlFiles, sources, output, c)
	if err != nil {
		var invalid *InvalidDescriptorError
		if errors.As(err, &invalid) {
			return nil, invalid
		}
		return nil, &PackagingError{Msg: "could not create deb package", Err: err}
	}
	return d, nil
}

func (p *Processor) createDeb(fs afero.Fs, tempData, tempControl afero.File, controlFiles []string, sources []Source, output string, c Compression) (*Descriptor, error) {
	now := p.now()

	// 1. Build the data archive first, the control archive needs its size
	// and md5sums.
	var data DataResult
	err := closeAfter(tempData, func(w io.Writer) (err error) {
		data, err = buildData(sources, w, c, now, p.Listener)
		return err
	})
	if err != nil {
		tempControl.Close()
		return nil, fmt.Errorf("building data archive: %w", err)
	}

	// 2. Build the control archive.
	cb := &controlBuilder{
		fs:           fs,
		substitution: p.Substitution,
		maintainer:   p.Maintainer,
		now:          now,
		logger:       p.logger(),
		listener:     p.Listener,
	}
	var descriptor *Descriptor
	err = closeAfter(tempControl, func(w io.Writer) (err error) {
		descriptor, err = cb.build(controlFiles, data, w)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("building control archive: %w", err)
	}

	// 3. Assemble the ar container behind the digest chain.
	if err := fs.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	out, err := fs.Create(output)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", output, err)
	}
	chain, md5Stage, sha1Stage, sha256Stage := newPackageDigests(out)

	err = p.writeContainer(fs, chain, now, tempControl.Name(), tempData.Name(), c)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing %s: %w", output, cerr)
	}
	if err != nil {
		return nil, err
	}

	// 4. Store the computed values.
	descriptor.Set(FieldMD5, md5Stage.HexDigest())
	descriptor.Set(FieldSHA1, sha1Stage.HexDigest())
	descriptor.Set(FieldSHA256, sha256Stage.HexDigest())
	descriptor.Set(FieldSize, strconv.FormatInt(sha256Stage.Size(), 10))
	descriptor.Set(FieldFile, filepath.Base(output))

	p.Listener.Emit(EventPackageWrite{Path: output, Size: sha256Stage.Size(), SHA256: sha256Stage.HexDigest()})
	return descriptor, nil
}

// writeContainer writes the three members of the .deb, in the order dpkg
// requires.
//
// Reference: https://manpages.debian.org/unstable/dpkg-dev/deb.5.en.html#FORMAT
func (p *Processor) writeContainer(fs afero.Fs, w io.Writer, now time.Time, control, data string, c Compression) error {
	arW := ar.NewWriter(w)
	if err := arW.WriteGlobalHeader(); err != nil {
		return fmt.Errorf("writing ar global header: %w", err)
	}
	if err := addBufferToAr(arW, string(PkgDebianBinary), []byte(debianBinaryVersion), now); err != nil {
		return fmt.Errorf("writing %s: %w", PkgDebianBinary, err)
	}
	if err := addFileToAr(fs, arW, string(PkgControlTarGz), control, now); err != nil {
		return fmt.Errorf("writing %s: %w", PkgControlTarGz, err)
	}
	dataName := string(PkgDataTar) + c.Extension()
	if err := addFileToAr(fs, arW, dataName, data, now); err != nil {
		return fmt.Errorf("writing %s: %w", dataName, err)
	}
	return nil
}

// removeTemp deletes a temporary file. Failing to do so fails the build,
// unless it already failed.
func (p *Processor) removeTemp(fs afero.Fs, name string, d **Descriptor, err *error) {
	rerr := fs.Remove(name)
	if rerr == nil {
		return
	}
	if *err != nil {
		p.logger().Warn("could not delete temporary file", "path", name, "err", rerr)
		return
	}
	*d = nil
	*err = &PackagingError{Msg: "could not delete " + name, Err: rerr}
}

// closeAfter runs fn on f and closes f, returning the first error.
func closeAfter(f afero.File, fn func(io.Writer) error) error {
	err := fn(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return err
}

// addBufferToAr writes a named byte slice as a file entry to the AR archive.
func addBufferToAr(w *ar.Writer, name string, body []byte, modTime time.Time) error {
	header := &ar.Header{
		Name:    name,
		Size:    int64(len(body)),
		Mode:    0o644,
		ModTime: modTime,
	}
	if err := w.WriteHeader(header); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// arChunkSize is even: ar.Writer pads every odd-sized Write, so only the last
// chunk of a member may be odd.
const arChunkSize = 32 * 1024

// addFileToAr streams a file as an entry of the AR archive.
func addFileToAr(fs afero.Fs, w *ar.Writer, name, path string, modTime time.Time) error {
	f, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header := &ar.Header{
		Name:    name,
		Size:    info.Size(),
		Mode:    0o644,
		ModTime: modTime,
	}
	if err := w.WriteHeader(header); err != nil {
		return err
	}

	buf := make([]byte, arChunkSize)
	var written int64
	for {
		n, rerr := io.ReadFull(f, buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return err
			}
			written += int64(n)
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	if written != info.Size() {
		return fmt.Errorf("%s: expected %d bytes, copied %d", path, info.Size(), written)
	}
	return nil
}
