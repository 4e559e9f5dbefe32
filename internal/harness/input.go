// SPDX-License-Identifier: AGPL-3.0-or-later

package harness

import (
	"bufio"
	"bytes"
	"errors"
)

var errInputClosed = errors.New("input already closed")

// queuedInput buffers entered text until Close moves it into the
// scenario's pending standard input.
type queuedInput struct {
	dst *bytes.Buffer
	w   *bufio.Writer
}

func newQueuedInput(dst *bytes.Buffer) *queuedInput {
	return &queuedInput{dst: dst, w: bufio.NewWriter(dst)}
}

func (q *queuedInput) Write(p []byte) (int, error) {
	if q.w == nil {
		return 0, errInputClosed
	}
	return q.w.Write(p)
}

func (q *queuedInput) Close() error {
	if q.w == nil {
		return errInputClosed
	}
	err := q.w.Flush()
	q.w = nil
	return err
}
