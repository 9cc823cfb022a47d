// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// zopen opens a file for reading, decompressing according to its
// suffix: .gz (gzip or bgzip), .bgz (bgzip, decompressed by blocks),
// .zst (zstandard).
func zopen(fnm string) (io.ReadCloser, error) {
	f, err := os.Open(fnm)
	if err != nil {
		return nil, err
	}
	rdr, err := zreader(fnm, bufio.NewReaderSize(f, 4*1024*1024))
	if err != nil {
		f.Close()
		return nil, err
	}
	if rdr == nil {
		return f, nil
	}
	return gzipr{rdr, f}, nil
}

// zreader returns a decompressing reader for r, or nil if fnm does
// not have a compression suffix.
func zreader(fnm string, r io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(fnm, ".gz"):
		return pgzip.NewReader(r)
	case strings.HasSuffix(fnm, ".bgz"):
		return bgzf.NewReader(r, 1)
	case strings.HasSuffix(fnm, ".zst"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, nil
	}
}

// gzipr wraps a ReadCloser and a Closer, presenting a single Close()
// method that closes both wrapped objects.
type gzipr struct {
	io.ReadCloser
	io.Closer
}

func (gr gzipr) Close() error {
	e1 := gr.ReadCloser.Close()
	e2 := gr.Closer.Close()
	if e1 != nil {
		return e1
	}
	return e2
}

// zcreate creates a file for writing, compressing according to its
// suffix (see zopen). Close flushes everything and closes the file.
func zcreate(fnm string) (io.WriteCloser, error) {
	f, err := os.Create(fnm)
	if err != nil {
		return nil, err
	}
	bufw := bufio.NewWriterSize(f, 1<<22)
	zw := &zwriter{f: f, bufw: bufw, Writer: bufw}
	switch {
	case strings.HasSuffix(fnm, ".gz"):
		zw.z = pgzip.NewWriter(bufw)
	case strings.HasSuffix(fnm, ".bgz"):
		zw.z = bgzf.NewWriter(bufw, 1)
	case strings.HasSuffix(fnm, ".zst"):
		zw.z, err = zstd.NewWriter(bufw)
		if err != nil {
			f.Close()
			return nil, err
		}
	}
	if zw.z != nil {
		zw.Writer = zw.z
	}
	return zw, nil
}

type zwriter struct {
	io.Writer
	z      io.WriteCloser
	bufw   *bufio.Writer
	f      *os.File
	closed bool
}

// Close is a no-op after the first call.
func (zw *zwriter) Close() error {
	if zw.closed {
		return nil
	}
	zw.closed = true
	var firstErr error
	if zw.z != nil {
		firstErr = zw.z.Close()
	}
	if err := zw.bufw.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := zw.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
