package wasm

import (
	"errors"
	"fmt"
)

// FailureKind enumerates the distinguishable ways a parse or validation can fail.
// See spec §7; every value below must remain distinguishable via errors.As on *FailureError.
type FailureKind int

const (
	FailureKindUnspecifiedMalformed FailureKind = iota
	FailureKindUnspecifiedInvalid
	FailureKindInvalidMagicNumber
	FailureKindInvalidVersionNumber
	FailureKindUnexpectedEnd
	FailureKindMalformedLeb
	FailureKindMalformedSectionId
	FailureKindDuplicatedSection
	FailureKindInvalidSectionOrder
	FailureKindSectionSizeMismatch
	FailureKindLengthOutOfBounds
	FailureKindMalformedValueType
	FailureKindMalformedUtf8
	FailureKindUnknownType
	FailureKindUnknownLocal
	FailureKindUnknownGlobal
	FailureKindUnknownTable
	FailureKindUnknownMemory
	FailureKindTypeMismatch
	FailureKindInvalidResultArity
	FailureKindLoopInput
	FailureKindImmutableGlobalWrite
	FailureKindZeroFlagExpected
	FailureKindAlignmentLargerThanNatural
	FailureKindDataSegmentDoesNotFit
	FailureKindLimitMinimumGreaterThanMaximum
	FailureKindMemorySizeLimitExceeded
	FailureKindFunctionsCodeInconsistentLengths
)

var failureKindNames = [...]string{
	"UnspecifiedMalformed", "UnspecifiedInvalid", "InvalidMagicNumber", "InvalidVersionNumber",
	"UnexpectedEnd", "MalformedLeb", "MalformedSectionId", "DuplicatedSection", "InvalidSectionOrder",
	"SectionSizeMismatch", "LengthOutOfBounds", "MalformedValueType", "MalformedUtf8", "UnknownType",
	"UnknownLocal", "UnknownGlobal", "UnknownTable", "UnknownMemory", "TypeMismatch", "InvalidResultArity",
	"LoopInput", "ImmutableGlobalWrite", "ZeroFlagExpected", "AlignmentLargerThanNatural",
	"DataSegmentDoesNotFit", "LimitMinimumGreaterThanMaximum", "MemorySizeLimitExceeded",
	"FunctionsCodeInconsistentLengths",
}

func (k FailureKind) String() string {
	if int(k) >= 0 && int(k) < len(failureKindNames) {
		return failureKindNames[k]
	}
	return "Unknown"
}

// FailureError pairs a FailureKind with a message, optionally wrapping an underlying
// cause. Not every error returned from a decode/validate entry point is a *FailureError
// (some are plain wrapped errors); KindOf reports FailureKindUnspecifiedInvalid for those.
type FailureError struct {
	Kind    FailureKind
	Message string
	Cause   error
}

func (e *FailureError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FailureError) Unwrap() error { return e.Cause }

// Fail constructs a *FailureError with the given kind and a formatted message.
func Fail(kind FailureKind, format string, args ...interface{}) error {
	return &FailureError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs a *FailureError of the given kind wrapping cause, preserving cause's
// message as context the way internal/wasm/binary's decoders chain fmt.Errorf("%w").
func Wrap(kind FailureKind, cause error, context string) error {
	if context == "" {
		return &FailureError{Kind: kind, Message: cause.Error(), Cause: cause}
	}
	return &FailureError{Kind: kind, Message: context + ": " + cause.Error(), Cause: cause}
}

// KindOf extracts the FailureKind from err if it (or something it wraps) is a
// *FailureError, defaulting to FailureKindUnspecifiedInvalid otherwise.
func KindOf(err error) FailureKind {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FailureKindUnspecifiedInvalid
}

// Sentinel errors kept for identity comparison without constructing a message, mirroring
// the teacher's internal/wasm/errors.go style (ErrInvalidByte, ErrInvalidMagicNumber, ...).
var (
	ErrInvalidByte         = errors.New("invalid byte")
	ErrInvalidMagicNumber  = errors.New("invalid magic number")
	ErrInvalidVersion      = errors.New("invalid version header")
	ErrInvalidSectionID    = errors.New("invalid section id")
	ErrCustomSectionNotFound = errors.New("custom section not found")
)
