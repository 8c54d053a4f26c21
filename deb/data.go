package deb

import (
	"archive/tar"
	"fmt"
	"io"
	"time"
)

// DataResult is what the control archive needs to know about the data archive.
type DataResult struct {
	// Size is the sum of the declared sizes of all files.
	Size uint64
	// Checksums lists the MD5 of every file, in archive order.
	Checksums Checksums
	// Directories lists every directory written, in archive order.
	Directories []string
}

// buildData writes the data archive to w. All sources share one sink, so a
// directory is written once even when several sources mention it.
func buildData(sources []Source, w io.Writer, c Compression, modTime time.Time, l Listener) (DataResult, error) {
	cw, err := c.compress(w)
	if err != nil {
		return DataResult{}, err
	}
	tw := tar.NewWriter(cw)
	sink := newTarSink(tw, modTime, l)

	for i, src := range sources {
		if err := src.Produce(sink); err != nil {
			return DataResult{}, fmt.Errorf("data source %d: %w", i, err)
		}
	}

	if err := tw.Close(); err != nil {
		return DataResult{}, fmt.Errorf("closing data tar: %w", err)
	}
	if err := cw.Close(); err != nil {
		return DataResult{}, fmt.Errorf("closing %s compressor: %w", c, err)
	}

	l.Emit(EventDataBuilt{Size: sink.size, Files: len(sink.checksums)})
	return DataResult{
		Size:        sink.size,
		Checksums:   sink.checksums,
		Directories: sink.dirs,
	}, nil
}
