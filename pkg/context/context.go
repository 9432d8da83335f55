// Package context gives shorter names to the types and constructors of the
// standard library context package.
package context

import (
	"context"
)

type (
	T = context.Context
	F = context.CancelFunc
	C = context.CancelCauseFunc
)

var (
	Bg          = context.Background
	Cancel      = context.WithCancel
	Deadline    = context.WithDeadline
	Timeout     = context.WithTimeout
	TODO        = context.TODO
	Value       = context.WithValue
	CancelCause = context.WithCancelCause
	Canceled    = context.Canceled
	DeadlineErr = context.DeadlineExceeded
)
