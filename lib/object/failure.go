// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"errors"
	"fmt"
)

// Failure is a failed computation. Its payload is ordinary data: a
// literal blob reference holding at most LiteralCapacity bytes of
// message. The Go error that caused it, if any, is kept for logging
// only and is never part of the data.
type Failure struct {
	data  Data[Handle]
	cause error
}

// NewFailure builds a failure from message, truncating it to fit a
// literal. It never fails.
func NewFailure(message string) *Failure {
	return &Failure{data: MakeErr(message)}
}

// Failf formats a message and returns it as a failure.
func Failf(format string, args ...any) *Failure {
	return NewFailure(fmt.Sprintf(format, args...))
}

// MakeErr returns the failure payload for message: a reference to the
// literal blob of its first LiteralCapacity bytes.
func MakeErr(message string) Data[Handle] {
	return RefData[Handle](BlobRef(TruncatedLiteral([]byte(message))))
}

// FailureOf wraps existing data as a failure. Procedures use it to
// fail with a payload of their choosing.
func FailureOf(data Data[Handle]) *Failure {
	return &Failure{data: data}
}

// AsFailure converts err to a failure. Existing failures anywhere in
// the chain are returned as is; other errors become a failure whose
// payload is the truncated error text and whose cause is err.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}
	return &Failure{data: MakeErr(err.Error()), cause: err}
}

// Data returns the failure payload.
func (f *Failure) Data() Data[Handle] { return f.data }

// Message returns the payload text when it is a literal blob, and the
// payload's rendering otherwise.
func (f *Failure) Message() string {
	if f.data.Kind() == BlobKind {
		name := f.data.Lower().Blob()
		if name.IsLiteral() {
			return string(name.Literal())
		}
	}
	return f.data.String()
}

// Error returns the payload message.
func (f *Failure) Error() string { return f.Message() }

// Unwrap returns the Go error the failure was converted from.
func (f *Failure) Unwrap() error { return f.cause }
