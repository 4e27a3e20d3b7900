// Package apperr collects the sentinel errors this module's
// components fail with, grouped by subsystem the way internal/util does for
// the adapted storage engine.
package apperr

import "errors"

// Construction-time failures (§7: "fail loudly at construction").
var (
	ErrNilArgument = errors.New("idxquery: required argument is nil")
	ErrOutOfRange  = errors.New("idxquery: ordinal out of range")
)

// ErrDisposed is returned by any operation performed on a resource after it
// has been released, per §7's "used after release" rule.
var ErrDisposed = errors.New("idxquery: used after release")
