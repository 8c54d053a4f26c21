package deb

import (
	"archive/tar"
	"bytes"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/neilotoole/slogt"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestReadPackageRoundTrip(t *testing.T) {
	for _, c := range []Compression{None, Gzip, Bzip2} {
		t.Run(c.String(), func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFiles(t, fs, map[string]string{
				"/src/control":  testControl,
				"/src/postinst": "#!/bin/sh\n",
			})
			p := newTestProcessor(t, fs)

			d, err := p.CreateDeb([]string{"/src/control", "/src/postinst"}, []Source{
				fileEntry("/usr/bin/app", "app", 0o755),
			}, "/out/app.deb", c)
			require.NoError(t, err)

			f, err := fs.Open("/out/app.deb")
			require.NoError(t, err)
			defer f.Close()

			pkg, err := ReadPackage(f)
			require.NoError(t, err)
			assert.Equal(t, []string{"debian-binary", "control.tar.gz", "data.tar" + c.Extension()}, pkg.Members)
			assert.Equal(t, "app", pkg.Control.Value(FieldPackage))
			assert.Equal(t, d.Value(FieldDate), pkg.Control.Value(FieldDate))
			assert.Equal(t, "#!/bin/sh\n", pkg.ControlFiles["postinst"])
			assert.Contains(t, pkg.ControlFiles, "md5sums")

			require.Len(t, pkg.Entries, 4)
			assert.Equal(t, "./usr/bin/app", pkg.Entries[3].Name)
			assert.Equal(t, int64(3), pkg.Entries[3].Size)
			assert.Equal(t, int64(0o755), pkg.Entries[3].Mode)
		})
	}
}

func TestReadPackageXz(t *testing.T) {
	now := time.Unix(1700000000, 0)

	var control bytes.Buffer
	cb := &controlBuilder{fs: afero.NewMemMapFs(), now: now, logger: slogt.New(t)}
	writeFiles(t, cb.fs, map[string]string{"/control": testControl})
	_, err := cb.build([]string{"/control"}, DataResult{}, &control)
	require.NoError(t, err)

	var data bytes.Buffer
	xw, err := xz.NewWriter(&data)
	require.NoError(t, err)
	tw := tar.NewWriter(xw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Typeflag: tar.TypeDir, Name: "./", Mode: 0o755}))
	require.NoError(t, tw.Close())
	require.NoError(t, xw.Close())

	var deb bytes.Buffer
	w := ar.NewWriter(&deb)
	require.NoError(t, w.WriteGlobalHeader())
	require.NoError(t, addBufferToAr(w, "debian-binary", []byte("2.0\n"), now))
	require.NoError(t, addBufferToAr(w, "control.tar.gz", control.Bytes(), now))
	require.NoError(t, addBufferToAr(w, "data.tar.xz", data.Bytes(), now))

	pkg, err := ReadPackage(&deb)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", pkg.Control.Value(FieldVersion))
	require.Len(t, pkg.Entries, 1)
	assert.Equal(t, "./", pkg.Entries[0].Name)
}

func TestReadPackageWithoutControl(t *testing.T) {
	var deb bytes.Buffer
	w := ar.NewWriter(&deb)
	require.NoError(t, w.WriteGlobalHeader())
	require.NoError(t, addBufferToAr(w, "debian-binary", []byte("2.0\n"), time.Now()))

	_, err := ReadPackage(&deb)
	assert.ErrorIs(t, err, ErrMissingControl)
}

func TestStandardFilename(t *testing.T) {
	d, err := ParseDescriptor(testControl)
	require.NoError(t, err)
	assert.Equal(t, "app_1.0.0_amd64.deb", StandardFilename(d))
}
