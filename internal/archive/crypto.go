// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package archive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12

	// Iterations is the PBKDF2 work factor.
	Iterations = 100000

	// ChunkSize is the plaintext size of every chunk except the last.
	ChunkSize = 64 * 1024

	headerVersion byte = 1
	lastChunkFlag      = uint32(1) << 31
)

var (
	headerMagic = []byte("LKENC")

	// kdfSalt is fixed so that the same passphrase always yields the same
	// key. Per-artifact uniqueness comes from the random base nonce.
	kdfSalt = []byte("ledgerkeep/archive/v1/kdf-salt")
)

// Encryption errors.
var (
	ErrMissingPassphrase = errors.New("encryption passphrase is required")
	ErrInvalidHeader     = errors.New("not an encrypted ledgerkeep artifact")
	ErrUnsupportedFormat = errors.New("unsupported encryption format version")
	ErrAuthentication    = errors.New("decryption failed: wrong key or corrupted data")
	ErrTruncated         = errors.New("encrypted stream is truncated")
	ErrTrailingData      = errors.New("unexpected data after final chunk")
)

// DeriveKey derives an AES-256 key from a passphrase using PBKDF2-SHA256.
func DeriveKey(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), kdfSalt, Iterations, KeySize, sha256.New)
}

// HeaderSize is the number of bytes preceding the first chunk.
func HeaderSize() int {
	return len(headerMagic) + 1 + NonceSize
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size %d, expected %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}

// chunkNonce mixes the chunk index into the last 8 bytes of the base nonce.
func chunkNonce(base []byte, index uint64) []byte {
	nonce := make([]byte, NonceSize)
	copy(nonce, base)
	tail := binary.BigEndian.Uint64(nonce[NonceSize-8:])
	binary.BigEndian.PutUint64(nonce[NonceSize-8:], tail^index)
	return nonce
}

// chunkAAD binds the chunk position and the final flag to the ciphertext so
// reordering, dropping, or truncating chunks fails authentication.
func chunkAAD(index uint64, last bool) []byte {
	aad := make([]byte, 9)
	binary.BigEndian.PutUint64(aad, index)
	if last {
		aad[8] = 1
	}
	return aad
}

// encryptWriter seals plaintext into length-prefixed GCM chunks.
type encryptWriter struct {
	w         io.Writer
	gcm       cipher.AEAD
	baseNonce []byte
	buf       []byte
	index     uint64
	closed    bool
}

// NewEncryptWriter writes the artifact header to w and returns a writer that
// encrypts everything written to it. Close must be called to emit the final
// chunk; it does not close w.
func NewEncryptWriter(w io.Writer, key []byte) (io.WriteCloser, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	baseNonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, baseNonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	header := make([]byte, 0, HeaderSize())
	header = append(header, headerMagic...)
	header = append(header, headerVersion)
	header = append(header, baseNonce...)
	if _, err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	return &encryptWriter{
		w:         w,
		gcm:       gcm,
		baseNonce: baseNonce,
		buf:       make([]byte, 0, ChunkSize*2),
	}, nil
}

func (e *encryptWriter) Write(p []byte) (int, error) {
	if e.closed {
		return 0, errors.New("write to closed encrypt writer")
	}
	e.buf = append(e.buf, p...)
	// Keep at least one byte buffered so Close always has the final chunk.
	for len(e.buf) > ChunkSize {
		if err := e.sealChunk(e.buf[:ChunkSize], false); err != nil {
			return 0, err
		}
		e.buf = append(e.buf[:0], e.buf[ChunkSize:]...)
	}
	return len(p), nil
}

func (e *encryptWriter) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.sealChunk(e.buf, true)
}

func (e *encryptWriter) sealChunk(plain []byte, last bool) error {
	sealed := e.gcm.Seal(nil, chunkNonce(e.baseNonce, e.index), plain, chunkAAD(e.index, last))

	prefix := uint32(len(sealed)) //nolint:gosec // G115: bounded by ChunkSize + overhead
	if last {
		prefix |= lastChunkFlag
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], prefix)

	if _, err := e.w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write chunk length: %w", err)
	}
	if _, err := e.w.Write(sealed); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	e.index++
	return nil
}

// decryptReader opens chunks produced by encryptWriter.
type decryptReader struct {
	r         io.Reader
	gcm       cipher.AEAD
	baseNonce []byte
	index     uint64
	pending   []byte
	done      bool
	err       error
}

// NewDecryptReader reads and validates the artifact header from r and
// returns a reader yielding the plaintext.
func NewDecryptReader(r io.Reader, key []byte) (io.Reader, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	header := make([]byte, HeaderSize())
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(header[:len(headerMagic)]) != string(headerMagic) {
		return nil, ErrInvalidHeader
	}
	if header[len(headerMagic)] != headerVersion {
		return nil, ErrUnsupportedFormat
	}

	return &decryptReader{
		r:         r,
		gcm:       gcm,
		baseNonce: append([]byte(nil), header[len(headerMagic)+1:]...),
	}, nil
}

func (d *decryptReader) Read(p []byte) (int, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return 0, d.err
		}
		if d.done {
			d.err = d.checkTrailing()
			return 0, d.err
		}
		if err := d.openChunk(); err != nil {
			d.err = err
			return 0, err
		}
	}
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *decryptReader) openChunk() error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return fmt.Errorf("read chunk length: %w", err)
	}

	prefix := binary.BigEndian.Uint32(lenBuf[:])
	last := prefix&lastChunkFlag != 0
	size := int(prefix &^ lastChunkFlag)
	if size < d.gcm.Overhead() || size > ChunkSize+d.gcm.Overhead() {
		return fmt.Errorf("%w: invalid chunk length %d", ErrAuthentication, size)
	}

	sealed := make([]byte, size)
	if _, err := io.ReadFull(d.r, sealed); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return fmt.Errorf("read chunk: %w", err)
	}

	plain, err := d.gcm.Open(nil, chunkNonce(d.baseNonce, d.index), sealed, chunkAAD(d.index, last))
	if err != nil {
		return ErrAuthentication
	}
	d.index++
	d.pending = plain
	d.done = last
	return nil
}

func (d *decryptReader) checkTrailing() error {
	var one [1]byte
	_, err := io.ReadFull(d.r, one[:])
	switch {
	case err == nil:
		return ErrTrailingData
	case errors.Is(err, io.EOF):
		return io.EOF
	default:
		return err
	}
}
