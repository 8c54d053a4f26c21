package deb

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompression(t *testing.T) {
	assert.Equal(t, Gzip, ParseCompression("gzip"))
	assert.Equal(t, Bzip2, ParseCompression("bzip2"))
	assert.Equal(t, None, ParseCompression("none"))
	assert.Equal(t, None, ParseCompression("xz"))
	assert.Equal(t, None, ParseCompression(""))
}

func TestCompressionExtension(t *testing.T) {
	assert.Equal(t, ".gz", Gzip.Extension())
	assert.Equal(t, ".bz2", Bzip2.Extension())
	assert.Equal(t, "", None.Extension())
	assert.Equal(t, "bzip2", Bzip2.String())
}

func TestCompressBzip2(t *testing.T) {
	payload := strings.Repeat("the quick brown fox jumps over the lazy dog\n", 200)

	var buf bytes.Buffer
	w, err := Bzip2.compress(&buf)
	require.NoError(t, err)
	_, err = io.WriteString(w, payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("BZh")), "stream starts with %q", buf.Bytes()[:4])

	r, err := bzip2.NewReader(&buf, nil)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))
}

func TestCompressNone(t *testing.T) {
	var buf bytes.Buffer
	w, err := None.compress(&buf)
	require.NoError(t, err)
	_, err = io.WriteString(w, "plain")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "plain", buf.String())
}

func TestSkipWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &skipWriter{w: &buf, skip: 3}

	n, err := w.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = w.Write([]byte("cdef"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "def", buf.String())
}
