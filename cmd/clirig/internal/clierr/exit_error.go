// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clierr maps command failures to process exit codes.
package clierr

import (
	"errors"
	"fmt"
)

const (
	// ExitFailure means scenarios ran and at least one failed.
	ExitFailure = 1
	// ExitConfig means the run never started: bad config, flags or paths.
	ExitConfig = 2
)

// ExitError carries the exit code main should terminate with.
type ExitError struct {
	Code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *ExitError) Unwrap() error { return e.cause }

// Wrap attaches code and msg to cause. A nil cause yields a plain message.
func Wrap(code int, msg string, cause error) error {
	return &ExitError{Code: nonZero(code), msg: msg, cause: cause}
}

// Newf formats a message with no underlying cause.
func Newf(code int, format string, args ...any) error {
	return &ExitError{Code: nonZero(code), msg: fmt.Sprintf(format, args...)}
}

// ExitCodeOf returns 0 for nil, the code of the outermost ExitError in the
// chain, or ExitFailure for any other error.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailure
}

func nonZero(code int) int {
	if code <= 0 {
		return ExitFailure
	}
	return code
}
