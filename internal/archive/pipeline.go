// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Package archive implements the streaming backup transform:
//
//	source → [gzip, best compression] → [AES-256-GCM chunks] → artifact
//
// and its inverse for restore. Every stage works on bounded buffers so the
// ledger file is never held in memory.
//
// Encrypted artifact layout:
//
//	"LKENC" | version(1) | base nonce(12) | { len|flags(4) | sealed chunk }...
//
// The base nonce is random per artifact and travels in the header, so the
// decrypting side never needs it from anywhere else. The key is derived from
// the passphrase with PBKDF2-SHA256 and a fixed application salt.
package archive

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
)

// copyBufferSize bounds the memory used by a single Pack or Unpack.
const copyBufferSize = 32 * 1024

// Options selects which stages run.
type Options struct {
	Compress   bool
	Encrypt    bool
	Passphrase string
}

// Validate checks that the options are self-consistent.
func (o Options) Validate() error {
	if o.Encrypt && o.Passphrase == "" {
		return ErrMissingPassphrase
	}
	return nil
}

// Suffix returns the artifact file extension for the options.
func Suffix(o Options) string {
	suffix := ".db"
	if o.Compress {
		suffix += ".gz"
	}
	if o.Encrypt {
		suffix += ".enc"
	}
	return suffix
}

// NewCompressWriter returns a gzip writer at maximum compression. The header
// carries no name or modification time, so equal input yields equal output.
func NewCompressWriter(w io.Writer) (io.WriteCloser, error) {
	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	return gz, nil
}

// stageWriters holds the writer chain; closers run in reverse order so each
// stage flushes into the one below it.
type stageWriters struct {
	top     io.Writer
	closers []io.Closer
}

func (s *stageWriters) push(wc io.WriteCloser) {
	s.top = wc
	s.closers = append(s.closers, wc)
}

func (s *stageWriters) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Pack streams src through the configured stages into dst and returns the
// number of artifact bytes written to dst.
func Pack(dst io.Writer, src io.Reader, opts Options) (int64, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}

	counter := &countingWriter{w: dst}
	stages := &stageWriters{top: counter}

	if opts.Encrypt {
		ew, err := NewEncryptWriter(stages.top, DeriveKey(opts.Passphrase))
		if err != nil {
			return counter.n, err
		}
		stages.push(ew)
	}
	if opts.Compress {
		gz, err := NewCompressWriter(stages.top)
		if err != nil {
			return counter.n, err
		}
		stages.push(gz)
	}

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(stages.top, src, buf); err != nil {
		_ = stages.close() //nolint:errcheck // copy error takes precedence
		return counter.n, fmt.Errorf("write artifact: %w", err)
	}
	if err := stages.close(); err != nil {
		return counter.n, fmt.Errorf("finalize artifact: %w", err)
	}
	return counter.n, nil
}

// Unpack reverses Pack: it decrypts, then decompresses, src into dst and
// returns the number of plaintext bytes written.
func Unpack(dst io.Writer, src io.Reader, opts Options) (int64, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}

	r := src
	if opts.Encrypt {
		dr, err := NewDecryptReader(r, DeriveKey(opts.Passphrase))
		if err != nil {
			return 0, err
		}
		r = dr
	}
	if opts.Compress {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return 0, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close() //nolint:errcheck // reader close only releases state
		r = gz
	}

	buf := make([]byte, copyBufferSize)
	n, err := io.CopyBuffer(dst, r, buf)
	if err != nil {
		return n, fmt.Errorf("read artifact: %w", err)
	}
	return n, nil
}
