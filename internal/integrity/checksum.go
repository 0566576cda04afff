// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Package integrity computes and verifies SHA-256 checksums of backup artifacts.
package integrity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReaderChecksum returns the hex SHA-256 of everything read from r.
func ReaderChecksum(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf("hash stream: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FileChecksum returns the hex SHA-256 of the file at path.
//
//nolint:gosec // G304: path is an artifact in the backup directory
func FileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close() //nolint:errcheck // read-only handle

	return ReaderChecksum(file)
}

// Verify recomputes the checksum of the file at path and compares it with
// expected. Unreadable files and mismatches both report false.
func Verify(path, expected string) bool {
	if expected == "" {
		return false
	}
	actual, err := FileChecksum(path)
	if err != nil {
		return false
	}
	return Equal(actual, expected)
}

// Equal compares two hex checksums in constant time, ignoring case.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(a)), []byte(strings.ToLower(b))) == 1
}
