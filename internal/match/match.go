// SPDX-License-Identifier: AGPL-3.0-or-later

// Package match implements the output assertions used by scenario steps.
// Expected text is always matched literally, never as a pattern.
package match

import (
	"errors"
	"strings"
)

// ErrAssertion is matched by every *AssertionError.
var ErrAssertion = errors.New("assertion failed")

// AssertionError reports a failed containment check together with the
// output it was checked against.
type AssertionError struct {
	Expected string
	Actual   string
	// Negated is true for "should not get" assertions.
	Negated bool
}

func (e *AssertionError) Error() string {
	return "Actual output:\n" + e.Actual
}

func (e *AssertionError) Is(target error) bool { return target == ErrAssertion }

// Contains reports whether expected occurs in actual as a contiguous substring.
func Contains(expected, actual string) bool {
	return strings.Contains(normalize(actual), normalize(expected))
}

// ShouldGet fails unless expected occurs in actual.
func ShouldGet(expected, actual string) error {
	if !Contains(expected, actual) {
		return &AssertionError{Expected: expected, Actual: actual}
	}
	return nil
}

// ShouldNotGet fails if expected occurs in actual.
func ShouldNotGet(expected, actual string) error {
	if Contains(expected, actual) {
		return &AssertionError{Expected: expected, Actual: actual, Negated: true}
	}
	return nil
}

func normalize(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
