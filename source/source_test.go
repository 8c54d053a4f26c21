package source

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/etnz/deb-builder/deb"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// recorded is an entry received by a recordingSink.
type recorded struct {
	dir     bool
	entry   deb.Entry
	content string
}

// recordingSink keeps every entry it receives.
type recordingSink struct {
	entries []recorded
}

func (s *recordingSink) Directory(e deb.Entry) error {
	s.entries = append(s.entries, recorded{dir: true, entry: e})
	return nil
}

func (s *recordingSink) File(e deb.Entry, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.entries = append(s.entries, recorded{entry: e, content: string(b)})
	return nil
}

func (s *recordingSink) names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.entry.Name
	}
	return names
}

func produce(t *testing.T, src deb.Source) *recordingSink {
	t.Helper()
	s := &recordingSink{}
	require.NoError(t, src.Produce(s))
	return s
}

func testTree(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/src/usr/bin", 0o755))
	require.NoError(t, fs.MkdirAll("/src/usr/share/doc", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/src/usr/bin/app", []byte("binary"), 0o755))
	require.NoError(t, afero.WriteFile(fs, "/src/usr/share/doc/README", []byte("read me"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/src/usr/share/doc/notes.tmp", []byte("tmp"), 0o644))
	return fs
}

func intPtr(i int) *int { return &i }

func TestDirectory(t *testing.T) {
	fs := testTree(t)
	s := produce(t, &Directory{Fs: fs, Root: "/src"})

	assert.Equal(t, []string{
		"usr/",
		"usr/bin/",
		"usr/bin/app",
		"usr/share/",
		"usr/share/doc/",
		"usr/share/doc/README",
		"usr/share/doc/notes.tmp",
	}, s.names())

	app := s.entries[2]
	assert.False(t, app.dir)
	assert.Equal(t, "binary", app.content)
	assert.Equal(t, int64(6), app.entry.Size)
	assert.Equal(t, int64(0o755), app.entry.Mode)
	assert.Equal(t, "root", app.entry.User)
}

func TestDirectoryFilter(t *testing.T) {
	fs := testTree(t)
	s := produce(t, &Directory{Fs: fs, Root: "/src", Filter: Filter{
		Includes: []string{"usr/share/doc/*", "usr/bin/"},
		Excludes: []string{"**/*.tmp"},
	}})
	assert.Equal(t, []string{"usr/bin/", "usr/bin/app", "usr/share/doc/README"}, s.names())
}

func TestFile(t *testing.T) {
	fs := testTree(t)
	s := produce(t, &File{Fs: fs, Path: "/src/usr/bin/app", Mapper: &PermMapper{Prefix: "/opt/app/bin"}})

	require.Len(t, s.entries, 1)
	assert.Equal(t, "/opt/app/bin/app", s.entries[0].entry.Name)
	assert.Equal(t, "binary", s.entries[0].content)
}

func TestLiteral(t *testing.T) {
	s := produce(t, &Literal{Paths: []string{"/var/log/app", "/var/lib/app"}})

	require.Len(t, s.entries, 2)
	for _, e := range s.entries {
		assert.True(t, e.dir)
		assert.Equal(t, "root", e.entry.User)
		assert.Equal(t, "root", e.entry.Group)
		assert.Equal(t, 0, e.entry.UID)
		assert.Equal(t, 0, e.entry.GID)
		assert.Equal(t, int64(0o755), e.entry.Mode)
		assert.Zero(t, e.entry.Size)
	}
	assert.Equal(t, []string{"/var/log/app/", "/var/lib/app/"}, s.names())
}

func TestLiteralMapped(t *testing.T) {
	s := produce(t, &Literal{
		Paths:  []string{"/var/log/app"},
		Mapper: &PermMapper{User: "app", UID: intPtr(1000), Group: "app", GID: intPtr(1000), DirMode: "750"},
	})
	require.Len(t, s.entries, 1)
	e := s.entries[0].entry
	assert.Equal(t, "app", e.User)
	assert.Equal(t, 1000, e.UID)
	assert.Equal(t, "app", e.Group)
	assert.Equal(t, 1000, e.GID)
	assert.Equal(t, int64(0o750), e.Mode)
}

func writeTar(t *testing.T, w io.Writer) {
	t.Helper()
	tw := tar.NewWriter(w)
	require.NoError(t, tw.WriteHeader(&tar.Header{Typeflag: tar.TypeDir, Name: "./", Mode: 0o755}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Typeflag: tar.TypeDir, Name: "./app/", Mode: 0o755, Uname: "app", Uid: 1000}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Typeflag: tar.TypeReg, Name: "./app/run", Mode: 0o755, Size: 5, Uname: "app", Uid: 1000}))
	_, err := tw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{Typeflag: tar.TypeSymlink, Name: "./app/link", Linkname: "run"}))
	require.NoError(t, tw.Close())
}

func TestArchive(t *testing.T) {
	formats := map[string]func(io.Writer) io.WriteCloser{
		"app.tar": func(w io.Writer) io.WriteCloser { return nopCloser{w} },
		"app.tar.gz": func(w io.Writer) io.WriteCloser {
			return gzip.NewWriter(w)
		},
		"app.tar.bz2": func(w io.Writer) io.WriteCloser {
			bw, err := bzip2.NewWriter(w, nil)
			require.NoError(t, err)
			return bw
		},
		"app.tar.xz": func(w io.Writer) io.WriteCloser {
			xw, err := xz.NewWriter(w)
			require.NoError(t, err)
			return xw
		},
	}
	for name, compress := range formats {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			cw := compress(&buf)
			writeTar(t, cw)
			require.NoError(t, cw.Close())

			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/dist/"+name, buf.Bytes(), 0o644))

			s := produce(t, &Archive{Fs: fs, Path: "/dist/" + name, Mapper: &PermMapper{Prefix: "/opt"}})
			assert.Equal(t, []string{"/opt/app/", "/opt/app/run"}, s.names())
			run := s.entries[1]
			assert.Equal(t, "hello", run.content)
			assert.Equal(t, "app", run.entry.User)
			assert.Equal(t, 1000, run.entry.UID)
		})
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func TestArchiveUnsupported(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dist/app.zip", []byte("PK"), 0o644))
	err := (&Archive{Fs: fs, Path: "/dist/app.zip"}).Produce(&recordingSink{})
	assert.ErrorContains(t, err, "unsupported archive format")
}

func TestNew(t *testing.T) {
	fs := testTree(t)

	src, err := New(fs, Config{Type: "Directory", Src: "/src/usr/bin", FailOnMissing: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, produce(t, src).names())

	src, err = New(fs, Config{Type: TypeFile, Src: "/src/usr/bin/app"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, produce(t, src).names())

	src, err = New(fs, Config{Type: TypeLiteral, Paths: []string{"/srv"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/"}, produce(t, src).names())

	_, err = New(fs, Config{Type: TypeDirectory})
	assert.Error(t, err)

	_, err = New(fs, Config{Src: "/src", Filter: Filter{Includes: []string{"[a-"}}})
	assert.Error(t, err)

	_, err = New(fs, Config{Src: "/src", Mapper: &PermMapper{FileMode: "999"}})
	assert.Error(t, err)
}

func TestNewLegacyFallback(t *testing.T) {
	fs := testTree(t)
	var buf bytes.Buffer
	writeTar(t, &buf)
	require.NoError(t, afero.WriteFile(fs, "/dist/app.tar", buf.Bytes(), 0o644))

	// A regular file is read as an archive.
	src, err := New(fs, Config{Src: "/dist/app.tar"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app/", "app/run"}, produce(t, src).names())

	// Anything else as a directory.
	src, err = New(fs, Config{Type: "unknown", Src: "/src/usr/bin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, produce(t, src).names())
}

func TestNewMissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()

	src, err := New(fs, Config{Type: TypeDirectory, Src: "/nope", FailOnMissing: true})
	require.NoError(t, err)
	assert.ErrorIs(t, src.Produce(&recordingSink{}), ErrMissingSource)

	src, err = New(fs, Config{Type: TypeDirectory, Src: "/nope"})
	require.NoError(t, err)
	assert.Empty(t, produce(t, src).entries)
}

func TestFilterMatch(t *testing.T) {
	f := Filter{Includes: []string{"usr/**/*.so", "etc/"}, Excludes: []string{"etc/secret"}}
	assert.True(t, f.Match("usr/lib/x/libfoo.so"))
	assert.True(t, f.Match("./etc/app.conf"))
	assert.False(t, f.Match("etc/secret"))
	assert.False(t, f.Match("usr/bin/app"))
	assert.True(t, Filter{}.Match("anything"))
}

func TestSplitPatterns(t *testing.T) {
	assert.Equal(t, []string{"**/*.so", "etc/", "usr/bin/*"}, SplitPatterns("**/*.so, etc/ usr/bin/*"))
	assert.Empty(t, SplitPatterns(""))
}
