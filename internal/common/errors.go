// Package common defines the sentinel error taxonomy shared by every vault
// layer. Callers should use errors.Is to match these values; most of them are
// wrapped together with the underlying cause.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrAuthenticationFailure means a ciphertext did not authenticate under
	// the key of one decryption tier. The resolver treats it as "try the next
	// tier" and never surfaces it on its own.
	ErrAuthenticationFailure = errors.New("authentication failure")

	// ErrExhaustedDecryptionTiers is terminal: no tier could authenticate the
	// resource, it is unreadable.
	ErrExhaustedDecryptionTiers = errors.New("resource unreadable: all decryption tiers exhausted")

	// ErrStorageIO wraps an object store or metadata store failure.
	ErrStorageIO = errors.New("storage i/o error")

	// ErrConstraintViolation covers duplicate sibling folder names, folder
	// cycles and guarded deletes. It is returned before anything is changed.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrStorageInconsistency means metadata and blob storage disagree, for
	// example a metadata row pointing at a missing blob.
	ErrStorageInconsistency = errors.New("storage inconsistency")

	// Validation errors.
	ErrInvalidAccessLevel = errors.New("invalid access level")
	ErrInvalidSecretKind  = errors.New("invalid secret kind")
	ErrInvalidName        = errors.New("invalid name")

	// Auth errors (invalid or malformed token, missing principal).
	ErrorInvalidToken = errors.New("invalid token")
	ErrorNoPrincipal  = errors.New("no principal")
	ErrorUnauthorized = errors.New("unauthorized")
)
