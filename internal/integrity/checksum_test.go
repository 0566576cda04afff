// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package integrity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.db.gz")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestFileChecksumKnownValue(t *testing.T) {
	path := writeFile(t, []byte("hello"))

	sum, err := FileChecksum(path)
	if err != nil {
		t.Fatalf("FileChecksum failed: %v", err)
	}

	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if sum != want {
		t.Errorf("expected %s, got %s", want, sum)
	}
}

func TestFileChecksumEmptyFile(t *testing.T) {
	path := writeFile(t, nil)

	sum, err := FileChecksum(path)
	if err != nil {
		t.Fatalf("FileChecksum failed: %v", err)
	}
	if sum != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("unexpected checksum for empty file: %s", sum)
	}
}

func TestVerify(t *testing.T) {
	data := []byte(strings.Repeat("ledger-row;", 200))
	path := writeFile(t, data)

	sum, err := FileChecksum(path)
	if err != nil {
		t.Fatalf("FileChecksum failed: %v", err)
	}

	if !Verify(path, sum) {
		t.Fatal("expected verification to pass with correct checksum")
	}
	if !Verify(path, strings.ToUpper(sum)) {
		t.Error("expected verification to ignore hex case")
	}

	// Flip a single byte in the middle of the artifact.
	data[len(data)/2] ^= 0x01
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	if Verify(path, sum) {
		t.Error("expected verification to fail after mutating one byte")
	}
}

func TestVerifyUnreadableFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")
	if Verify(missing, "abc") {
		t.Error("expected false for missing file")
	}
}

func TestVerifyEmptyExpected(t *testing.T) {
	path := writeFile(t, []byte("data"))
	if Verify(path, "") {
		t.Error("expected false when no checksum is recorded")
	}
}
