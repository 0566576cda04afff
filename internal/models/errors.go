// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package models

import (
	"errors"
)

// Kind classifies backup subsystem failures. Every error surfaced to callers
// carries exactly one Kind.
type Kind string

const (
	KindDataSourceMissing     Kind = "DATA_SOURCE_MISSING"
	KindStorageUnavailable    Kind = "STORAGE_UNAVAILABLE"
	KindBackupCreationFailed  Kind = "BACKUP_CREATION_FAILED"
	KindIntegrityCheckFailed  Kind = "INTEGRITY_CHECK_FAILED"
	KindBackupNotFound        Kind = "BACKUP_NOT_FOUND"
	KindBackupFileMissing     Kind = "BACKUP_FILE_MISSING"
	KindRestoreFailed         Kind = "RESTORE_FAILED"
	KindProviderNotConfigured Kind = "PROVIDER_NOT_CONFIGURED"
	KindUnsupportedProvider   Kind = "UNSUPPORTED_PROVIDER"
	KindScheduleInPast        Kind = "SCHEDULE_IN_PAST"
	KindValidationFailed      Kind = "VALIDATION_FAILED"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrDataSourceMissing     = &Error{Kind: KindDataSourceMissing}
	ErrStorageUnavailable    = &Error{Kind: KindStorageUnavailable}
	ErrBackupCreationFailed  = &Error{Kind: KindBackupCreationFailed}
	ErrIntegrityCheckFailed  = &Error{Kind: KindIntegrityCheckFailed}
	ErrBackupNotFound        = &Error{Kind: KindBackupNotFound}
	ErrBackupFileMissing     = &Error{Kind: KindBackupFileMissing}
	ErrRestoreFailed         = &Error{Kind: KindRestoreFailed}
	ErrProviderNotConfigured = &Error{Kind: KindProviderNotConfigured}
	ErrUnsupportedProvider   = &Error{Kind: KindUnsupportedProvider}
	ErrScheduleInPast        = &Error{Kind: KindScheduleInPast}
	ErrValidationFailed      = &Error{Kind: KindValidationFailed}
)

// Error is a classified backup error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the outermost *Error in err's chain, or the
// empty Kind when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
