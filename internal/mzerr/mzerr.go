// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package mzerr declares the single error taxonomy shared by every mzPeak
// component. Each category is one Kind; callers compare against Kind with
// errors.As/Is rather than sentinel values scattered per package.
package mzerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a mzPeak error.
type Kind int

const (
	// KindIO is returned by sink or source file-handle failures.
	KindIO Kind = iota
	// KindColumnar is returned by the underlying columnar writer/reader.
	KindColumnar
	// KindMetadata is returned on JSON (de)serialisation failure or a
	// missing required metadata column.
	KindMetadata
	// KindArchive is returned by the container layer: unexpected entry
	// order, wrong compression method, missing mandatory entries.
	KindArchive
	// KindContract is returned when an IngestSpectrum violates an
	// invariant from spec.md §3.
	KindContract
	// KindDecode is returned by the binary array decoding pipeline.
	KindDecode
	// KindState is returned for already-exists / not-initialised /
	// already-closed preconditions.
	KindState
	// KindWorker is returned by the async writer's background worker,
	// including a recovered panic.
	KindWorker
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindColumnar:
		return "columnar"
	case KindMetadata:
		return "metadata"
	case KindArchive:
		return "archive"
	case KindContract:
		return "contract"
	case KindDecode:
		return "decode"
	case KindState:
		return "state"
	case KindWorker:
		return "worker"
	default:
		return "unknown"
	}
}

// Error is a mzPeak error: a human-readable message tagged with its Kind,
// optionally wrapping a lower-level cause.
type Error struct {
	Kind    Kind
	Field   string // set for KindContract, names the offending field
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (field=%s): %v", e.Kind, e.Message, e.Field, e.Cause)
		}
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target shares the same Kind, so callers can write
// errors.Is(err, mzerr.New(mzerr.KindArchive, "")).
func (e *Error) Is(target error) bool {
	var o *Error
	if errors.As(target, &o) {
		return o.Kind == e.Kind
	}
	return false
}

// New builds a bare Error with no cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that carries cause as its Unwrap target.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Field builds a KindContract error naming the offending field and value.
func Field(field, message string) *Error {
	return &Error{Kind: KindContract, Field: field, Message: message}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, with ok
// reporting whether one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Sentinel state errors, mirrored after the teacher's pattern of exported
// Err... values for conditions callers frequently compare against directly.
var (
	// ErrAlreadyExists is returned when the dataset path already exists on create.
	ErrAlreadyExists = New(KindState, "dataset path already exists")
	// ErrAlreadyClosed is returned when a write or stats call is made on a
	// finalised writer, or close is called a second time.
	ErrAlreadyClosed = New(KindState, "writer already closed")
	// ErrNotInitialised is returned when an operation requires a part file
	// that has not yet been rotated into existence.
	ErrNotInitialised = New(KindState, "writer not initialised")
)
