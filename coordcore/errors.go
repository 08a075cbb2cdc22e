// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package coordcore

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the taxonomy every component surfaces at
// its boundary. The coordinator inspects Kind to decide whether an error
// is retryable.
type Kind string

const (
	KindInvalidOperation    Kind = "invalid_operation"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindPolicyDenied        Kind = "policy_denied"
	KindStorageError        Kind = "storage_error"
	KindDagOperationFailed  Kind = "dag_operation_failed"
	KindSerializationError  Kind = "serialization_error"
	KindDeserializationErr  Kind = "deserialization_error"
	KindNetworkError        Kind = "network_error"
	KindCRDTError           Kind = "crdt_error"
	KindIdentityError       Kind = "identity_error"
	KindTimeout             Kind = "timeout"
	KindInternal            Kind = "internal"
)

// Retryable reports whether the coordinator's retry policy should retry an
// operation that failed with this kind. Only NetworkError and Timeout are
// retried; everything else is a definitive rejection.
func (k Kind) Retryable() bool {
	return k == KindNetworkError || k == KindTimeout
}

// Error is the structured error every component boundary returns. Detail
// never includes signatures or key material.
type Error struct {
	Kind   Kind
	Detail string
	Err    error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, coordcore.New(KindX, "")) to match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap constructs an *Error wrapping cause.
func Wrap(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and
// KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Sentinel errors for the handful of call sites that want a plain
// comparable value rather than a formatted *Error.
var (
	ErrInsufficientMana = errors.New("coordcore: insufficient mana")
	ErrNotFound         = errors.New("coordcore: not found")
	ErrAlreadyExists    = errors.New("coordcore: already exists")
)
