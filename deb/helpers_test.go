package deb

import (
	"archive/tar"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// tarEntry is a decoded member of a tar archive.
type tarEntry struct {
	header  *tar.Header
	content string
}

func readTar(t *testing.T, r io.Reader) []tarEntry {
	t.Helper()
	var entries []tarEntry
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return entries
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries = append(entries, tarEntry{header: h, content: string(content)})
	}
}

func readTarGz(t *testing.T, b []byte) []tarEntry {
	t.Helper()
	gr, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer gr.Close()
	return readTar(t, gr)
}

func entryNames(entries []tarEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.header.Name
	}
	return names
}

func findEntry(t *testing.T, entries []tarEntry, name string) tarEntry {
	t.Helper()
	for _, e := range entries {
		if e.header.Name == name {
			return e
		}
	}
	t.Fatalf("entry %s not found in %v", name, entryNames(entries))
	return tarEntry{}
}

// arMember is a decoded member of an ar archive.
type arMember struct {
	name string
	body []byte
}

func readAr(t *testing.T, b []byte) []arMember {
	t.Helper()
	var members []arMember
	r := ar.NewReader(bytes.NewReader(b))
	for {
		h, err := r.Next()
		if err == io.EOF {
			return members
		}
		require.NoError(t, err)
		body, err := io.ReadAll(r)
		require.NoError(t, err)
		members = append(members, arMember{name: h.Name, body: body})
	}
}

// fileEntry returns a source emitting a single root-owned file.
func fileEntry(name, content string, mode int64) Source {
	return SourceFunc(func(s Sink) error {
		return s.File(Entry{
			Name:  name,
			User:  "root",
			Group: "root",
			Mode:  mode,
			Size:  int64(len(content)),
		}, strings.NewReader(content))
	})
}

const testControl = `Package: app
Version: 1.0.0
Architecture: amd64
Maintainer: Test User <test@example.com>
Section: utils
Priority: optional
Description: A test package
 with a long description.
`
