// SPDX-License-Identifier: AGPL-3.0-or-later

package harness

import (
	"bytes"

	"github.com/bartekus/clirig/internal/tags"
)

// State is what a single scenario has accumulated so far.
type State struct {
	Tags        tags.Map
	Cassette    string
	HasCassette bool
	// WorkDir is set by "I am in directory"; empty inherits the parent's.
	WorkDir string

	Ran        bool
	LastLine   string
	LastOutput string
	LastStderr string
	ExitCode   int

	stdin *bytes.Buffer
}

// reset clears everything so no output survives into the next scenario.
func (st *State) reset() {
	*st = State{stdin: &bytes.Buffer{}}
}
