package deb

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// digestStage hashes and counts the bytes that go through it.
type digestStage struct {
	name string
	h    hash.Hash
	n    int64
}

// HexDigest returns the hex encoded digest of the bytes seen so far.
func (s *digestStage) HexDigest() string {
	return hex.EncodeToString(s.h.Sum(nil))
}

// Size returns the number of bytes seen so far.
func (s *digestStage) Size() int64 { return s.n }

// digestChain is an io.Writer passing every byte through an ordered list of
// stages before it reaches w. Stages only observe the bytes; what reaches w
// is exactly what was written.
type digestChain struct {
	w      io.Writer
	stages []*digestStage
}

func newDigestChain(w io.Writer, stages ...*digestStage) *digestChain {
	return &digestChain{w: w, stages: stages}
}

// newPackageDigests returns the chain used for .deb files. Bytes go through
// SHA-256, then SHA-1, then MD5.
func newPackageDigests(w io.Writer) (*digestChain, *digestStage, *digestStage, *digestStage) {
	md5Stage := &digestStage{name: string(FieldMD5), h: md5.New()}
	sha1Stage := &digestStage{name: string(FieldSHA1), h: sha1.New()}
	sha256Stage := &digestStage{name: string(FieldSHA256), h: sha256.New()}
	return newDigestChain(w, sha256Stage, sha1Stage, md5Stage), md5Stage, sha1Stage, sha256Stage
}

// Write implements io.Writer.
func (c *digestChain) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	for _, s := range c.stages {
		s.h.Write(p[:n])
		s.n += int64(n)
	}
	return n, err
}
