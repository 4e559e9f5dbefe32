// SPDX-License-Identifier: AGPL-3.0-or-later

// Package harness holds the per-scenario state of a CLI test run and the
// operations scenario steps perform against it.
//
// A ScenarioContext is built once per run. Before starts every scenario:
// it derives the cassette from the scenario's tags and clears whatever the
// previous scenario captured. Steps then run commands and assert on their
// output in order; nothing runs concurrently.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bartekus/clirig/internal/command"
	"github.com/bartekus/clirig/internal/config"
	"github.com/bartekus/clirig/internal/match"
	"github.com/bartekus/clirig/internal/tags"
)

var (
	// ErrConfiguration means a step needs a connection parameter that is not set.
	ErrConfiguration = errors.New("configuration error")
	// ErrCassetteMissing means a command ran in a scenario without a vcr tag
	// while cassettes are required.
	ErrCassetteMissing = errors.New("cassette name missing")
)

// InputOpener returns a handle the "I enter" step writes one line to.
// The handle is closed after every write.
type InputOpener func() (io.WriteCloser, error)

// Options configure a ScenarioContext.
type Options struct {
	Connection config.Connection
	Builder    command.Builder
	Executor   command.Executor
	// Timeout bounds each command; zero disables it.
	Timeout time.Duration
	// RequireCassette turns a missing vcr tag into ErrCassetteMissing
	// instead of a warning.
	RequireCassette bool
	Logger          *slog.Logger
	// Input overrides where entered text goes. By default it is queued and
	// fed to the standard input of the next command.
	Input InputOpener
}

// ScenarioContext is the state machine steps operate on.
type ScenarioContext struct {
	opts  Options
	log   *slog.Logger
	state State
}

// New returns a context that is ready for its first scenario.
func New(opts Options) *ScenarioContext {
	if opts.Executor == nil {
		opts.Executor = &command.ShellExecutor{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &ScenarioContext{opts: opts, log: log}
	s.state.reset()
	return s
}

// State returns a snapshot of the current scenario's state.
func (s *ScenarioContext) State() State {
	st := s.state
	st.stdin = nil
	return st
}

// Before starts a scenario with the given raw tags.
func (s *ScenarioContext) Before(rawTags []string) {
	s.state.reset()
	s.state.Tags = tags.Extract(rawTags)
	s.state.Cassette, s.state.HasCassette = tags.Cassette(s.state.Tags)
	s.log.Debug("scenario started", "tags", rawTags, "cassette", s.state.Cassette)
}

// Authenticate logs in with the configured username and password.
func (s *ScenarioContext) Authenticate(ctx context.Context) error {
	user, okUser := s.opts.Connection.Lookup(config.KeyUsername)
	pass, okPass := s.opts.Connection.Lookup(config.KeyPassword)
	if !okUser || !okPass {
		return fmt.Errorf("%w: username and password are required to authenticate; check your configuration file", ErrConfiguration)
	}
	return s.Run(ctx, s.opts.Builder.Name+" auth login "+command.Quote(user)+" --password="+command.Quote(pass))
}

// InDirectory makes later commands run in <root>/<dir>.
func (s *ScenarioContext) InDirectory(dir string) error {
	path := filepath.Join(s.opts.Builder.Root, dir)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("changing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("changing directory: %s is not a directory", path)
	}
	s.state.WorkDir = path
	return nil
}

// Enter writes text and a newline to the input handle.
func (s *ScenarioContext) Enter(text string) (err error) {
	w, err := s.openInput()
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing input: %w", cerr)
		}
	}()

	if _, err := io.WriteString(w, text+"\n"); err != nil {
		return fmt.Errorf("writing input: %w", err)
	}
	return nil
}

func (s *ScenarioContext) openInput() (io.WriteCloser, error) {
	if s.opts.Input != nil {
		return s.opts.Input()
	}
	return newQueuedInput(s.state.stdin), nil
}

// Run executes command against the CLI under test and keeps its output.
func (s *ScenarioContext) Run(ctx context.Context, cmd string) error {
	if !s.state.HasCassette {
		if s.opts.RequireCassette {
			return fmt.Errorf("%w: add a vcr tag to the scenario before running %q", ErrCassetteMissing, cmd)
		}
		s.log.Warn("running without a cassette; add a vcr tag to the scenario", "command", s.redact(cmd))
	}

	line := s.opts.Builder.Build(cmd, s.state.Cassette, s.opts.Connection)
	inv := command.Invocation{
		Line:    line,
		Dir:     s.state.WorkDir,
		Stdin:   s.takeInput(),
		Timeout: s.opts.Timeout,
	}

	s.log.Debug("running command", "line", s.redact(line), "dir", inv.Dir)
	res, err := s.opts.Executor.Execute(ctx, inv)

	s.state.Ran = true
	s.state.LastLine = line
	s.state.LastOutput = res.Output
	s.state.LastStderr = res.Stderr
	s.state.ExitCode = res.ExitCode
	if err != nil {
		return fmt.Errorf("running %q: %w", s.redact(cmd), err)
	}

	s.log.Debug("command finished", "exit_code", res.ExitCode, "duration", res.Duration)
	return nil
}

func (s *ScenarioContext) takeInput() []byte {
	if s.state.stdin.Len() == 0 {
		return nil
	}
	in := append([]byte(nil), s.state.stdin.Bytes()...)
	s.state.stdin.Reset()
	return in
}

// redact hides the configured password from log lines and errors.
func (s *ScenarioContext) redact(line string) string {
	if pass, ok := s.opts.Connection.Lookup(config.KeyPassword); ok {
		line = strings.ReplaceAll(line, command.Quote(pass), "******")
		return strings.ReplaceAll(line, pass, "******")
	}
	return line
}

// ShouldGet asserts that the last output contains expected.
func (s *ScenarioContext) ShouldGet(expected string) error {
	return s.diagnose(match.ShouldGet(expected, s.state.LastOutput))
}

// ShouldNotGet asserts that the last output does not contain expected.
func (s *ScenarioContext) ShouldNotGet(expected string) error {
	return s.diagnose(match.ShouldNotGet(expected, s.state.LastOutput))
}

// diagnose appends separated stderr to assertion failures.
func (s *ScenarioContext) diagnose(err error) error {
	if err == nil || s.state.LastStderr == "" {
		return err
	}
	return fmt.Errorf("%w\nStandard error:\n%s", err, s.state.LastStderr)
}
