// Package deb builds Debian binary packages (.deb) and their .changes
// announcements.
//
// # Pipeline
//
// A build is driven by a [Processor]:
//
//  1. The data archive (data.tar, data.tar.gz or data.tar.bz2) is written to a
//     temporary file. Every [Source] emits entries into one shared [Sink]
//     which normalizes paths, creates missing parent directories once, and
//     records the MD5 of each file together with the total size.
//  2. The control archive (control.tar.gz) is written next, because it needs
//     the installed size and the md5sums computed in step 1.
//  3. Both temporary files are streamed into the final ar container, behind a
//     chain of MD5, SHA-1 and SHA-256 digests. The digests and the size of
//     the .deb are stored back into the returned [Descriptor].
//
// Nothing is buffered in memory beyond a copy buffer: file contents flow from
// the sources into the compressors and from the temporary files into the
// container.
//
// # Changes
//
// [Processor.CreateChanges] turns the finished descriptor into a .changes
// document and optionally clear-signs it with a [Signer], such as the
// OpenPGP based [OpenPGPSigner].
package deb
