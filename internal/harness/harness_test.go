package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/clirig/internal/command"
	"github.com/bartekus/clirig/internal/config"
	"github.com/bartekus/clirig/internal/match"
)

// spyExecutor records invocations and replies with canned results.
type spyExecutor struct {
	calls  []command.Invocation
	result command.Result
	err    error
}

func (s *spyExecutor) Execute(ctx context.Context, inv command.Invocation) (command.Result, error) {
	s.calls = append(s.calls, inv)
	return s.result, s.err
}

func newTestContext(t *testing.T, spy *spyExecutor, params map[string]string) (*ScenarioContext, *bytes.Buffer) {
	t.Helper()
	logs := &bytes.Buffer{}
	sc := New(Options{
		Connection: config.NewConnection(params),
		Builder: command.Builder{
			Root: "/opt/cli",
			Name: "terminus",
			Bin:  "bin/terminus",
			Env:  command.EnvNames{Cassette: "VCR_CASSETTE", Mode: "VCR_MODE", Host: "TERMINUS_HOST"},
		},
		Executor: spy,
		Logger:   slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	return sc, logs
}

func TestScenario_EndToEnd(t *testing.T) {
	spy := &spyExecutor{result: command.Result{Output: "Name: demo-site\n"}}
	sc, _ := newTestContext(t, spy, nil)
	ctx := context.Background()

	sc.Before([]string{"vcr site_info"})
	assert.Equal(t, "site_info", sc.State().Cassette)

	require.NoError(t, sc.Run(ctx, "terminus site info"))
	require.Len(t, spy.calls, 1)
	assert.Equal(t, "VCR_CASSETTE=site_info /opt/cli/bin/terminus site info", spy.calls[0].Line)

	assert.NoError(t, sc.ShouldGet("Name: demo-site"))
	assert.NoError(t, sc.ShouldNotGet("Name: other-site"))

	err := sc.ShouldGet("Name: other-site")
	require.Error(t, err)
	assert.True(t, errors.Is(err, match.ErrAssertion))
	assert.Contains(t, err.Error(), "Name: demo-site\n")
}

func TestScenario_AuthenticateRequiresCredentials(t *testing.T) {
	for _, params := range []map[string]string{
		nil,
		{config.KeyUsername: "dev@example.com"},
		{config.KeyPassword: "secret"},
		{config.KeyUsername: "dev@example.com", config.KeyPassword: ""},
	} {
		spy := &spyExecutor{}
		sc, _ := newTestContext(t, spy, params)
		sc.Before([]string{"vcr auth_login"})

		err := sc.Authenticate(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfiguration))
		assert.Empty(t, spy.calls, "no process may be spawned")
	}
}

func TestScenario_Authenticate(t *testing.T) {
	spy := &spyExecutor{result: command.Result{Output: "Logged in as dev@example.com\n"}}
	sc, logs := newTestContext(t, spy, map[string]string{
		config.KeyUsername: "dev@example.com",
		config.KeyPassword: "s3cret",
		config.KeyHost:     "dashboard.example.com",
		config.KeyVCRMode:  "none",
	})
	sc.Before([]string{"vcr auth_login"})

	require.NoError(t, sc.Authenticate(context.Background()))
	require.Len(t, spy.calls, 1)
	assert.Equal(t,
		"TERMINUS_HOST=dashboard.example.com VCR_MODE=none VCR_CASSETTE=auth_login /opt/cli/bin/terminus auth login dev@example.com --password=s3cret",
		spy.calls[0].Line)
	assert.NotContains(t, logs.String(), "s3cret")
	assert.NoError(t, sc.ShouldGet("Logged in as"))
}

func TestScenario_MissingCassette(t *testing.T) {
	t.Run("warns by default", func(t *testing.T) {
		spy := &spyExecutor{}
		sc, logs := newTestContext(t, spy, nil)
		sc.Before([]string{"smoke"})

		require.NoError(t, sc.Run(context.Background(), "terminus cli version"))
		require.Len(t, spy.calls, 1)
		assert.Equal(t, "VCR_CASSETTE= /opt/cli/bin/terminus cli version", spy.calls[0].Line)
		assert.Contains(t, logs.String(), "running without a cassette")
	})

	t.Run("fails when required", func(t *testing.T) {
		spy := &spyExecutor{}
		sc, _ := newTestContext(t, spy, nil)
		sc.opts.RequireCassette = true
		sc.Before(nil)

		err := sc.Run(context.Background(), "terminus cli version")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCassetteMissing))
		assert.Empty(t, spy.calls)
	})
}

func TestScenario_BeforeClearsPreviousScenario(t *testing.T) {
	spy := &spyExecutor{result: command.Result{Output: "stale output", ExitCode: 2}}
	sc, _ := newTestContext(t, spy, nil)

	sc.Before([]string{"vcr first"})
	require.NoError(t, sc.Run(context.Background(), "terminus first"))
	require.NoError(t, sc.Enter("leftover"))

	sc.Before([]string{"smoke"})
	st := sc.State()
	assert.False(t, st.HasCassette)
	assert.Empty(t, st.Cassette)
	assert.Empty(t, st.LastOutput)
	assert.Zero(t, st.ExitCode)
	assert.False(t, st.Ran)

	assert.Error(t, sc.ShouldGet("stale output"), "output must not carry over")

	spy.result = command.Result{}
	require.NoError(t, sc.Run(context.Background(), "terminus second"))
	assert.Nil(t, spy.calls[1].Stdin, "input must not carry over")
}

func TestScenario_RunErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"spawn", fmt.Errorf("%w: sh: not found", command.ErrSpawn)},
		{"timeout", fmt.Errorf("%w after 1s", command.ErrTimeout)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyExecutor{err: tt.err, result: command.Result{ExitCode: -1}}
			sc, _ := newTestContext(t, spy, nil)
			sc.Before([]string{"vcr x"})

			err := sc.Run(context.Background(), "terminus site info")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err))
			assert.Equal(t, -1, sc.State().ExitCode)
		})
	}
}

func TestScenario_EnterFeedsNextRun(t *testing.T) {
	spy := &spyExecutor{}
	sc, _ := newTestContext(t, spy, nil)
	sc.Before([]string{"vcr prompt"})

	require.NoError(t, sc.Enter("y"))
	require.NoError(t, sc.Enter("demo-site"))
	require.NoError(t, sc.Run(context.Background(), "terminus site delete"))
	require.NoError(t, sc.Run(context.Background(), "terminus site list"))

	assert.Equal(t, []byte("y\ndemo-site\n"), spy.calls[0].Stdin)
	assert.Nil(t, spy.calls[1].Stdin)
}

type failingWriter struct{ closed bool }

func (f *failingWriter) Write(p []byte) (int, error) { return 0, io.ErrShortWrite }
func (f *failingWriter) Close() error {
	f.closed = true
	return nil
}

func TestScenario_EnterClosesHandleOnFailure(t *testing.T) {
	w := &failingWriter{}
	sc := New(Options{Input: func() (io.WriteCloser, error) { return w, nil }})
	sc.Before(nil)

	err := sc.Enter("anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrShortWrite))
	assert.True(t, w.closed)
}

func TestScenario_InDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fixtures", "site"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), nil, 0o600))

	spy := &spyExecutor{}
	sc := New(Options{
		Builder:  command.Builder{Root: root, Name: "terminus", Bin: "bin/terminus", Env: command.EnvNames{Cassette: "VCR_CASSETTE"}},
		Executor: spy,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	sc.Before([]string{"vcr dir"})

	require.NoError(t, sc.InDirectory("fixtures/site"))
	require.NoError(t, sc.Run(context.Background(), "terminus site info"))
	assert.Equal(t, filepath.Join(root, "fixtures", "site"), spy.calls[0].Dir)

	assert.Error(t, sc.InDirectory("missing"))
	assert.Error(t, sc.InDirectory("file.txt"))

	sc.Before(nil)
	assert.Empty(t, sc.State().WorkDir)
}

func TestScenario_StderrInDiagnostics(t *testing.T) {
	spy := &spyExecutor{result: command.Result{Output: "", Stderr: "[error] Site not found\n", ExitCode: 1}}
	sc, _ := newTestContext(t, spy, nil)
	sc.Before([]string{"vcr missing_site"})
	require.NoError(t, sc.Run(context.Background(), "terminus site info --site=nope"))

	err := sc.ShouldGet("Name:")
	require.Error(t, err)
	assert.True(t, errors.Is(err, match.ErrAssertion))
	assert.Contains(t, err.Error(), "Site not found")
	assert.Equal(t, 1, sc.State().ExitCode)
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
}

func TestScenario_InDirectoryWithRelativeRoot(t *testing.T) {
	root := t.TempDir()
	writeScript(t, filepath.Join(root, "bin", "terminus"), `echo "hello from $(basename "$(pwd)")"`+"\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fixtures"), 0o755))
	t.Setenv(config.EnvRoot, "")
	chdir(t, root)

	cfg, err := config.Load(config.DefaultPath)
	require.NoError(t, err)
	sc := New(Options{
		Builder:  command.NewBuilder(cfg),
		Executor: &command.ShellExecutor{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()
	sc.Before([]string{"vcr x"})

	require.NoError(t, sc.Run(ctx, "terminus hi"))
	require.Equal(t, 0, sc.State().ExitCode, sc.State().LastOutput)

	require.NoError(t, sc.InDirectory("fixtures"))
	require.NoError(t, sc.Run(ctx, "terminus hi"))
	assert.Equal(t, 0, sc.State().ExitCode, sc.State().LastOutput)
	assert.NoError(t, sc.ShouldGet("hello from fixtures"))
}

const shellPassword = "pa$$ w0rd;echo INJECTED"

func TestScenario_AuthenticateQuotesCredentials(t *testing.T) {
	spy := &spyExecutor{}
	sc, logs := newTestContext(t, spy, map[string]string{
		config.KeyUsername: "dev@example.com",
		config.KeyPassword: shellPassword,
	})
	sc.Before([]string{"vcr auth_login"})

	require.NoError(t, sc.Authenticate(context.Background()))
	require.Len(t, spy.calls, 1)
	assert.Equal(t,
		`VCR_CASSETTE=auth_login /opt/cli/bin/terminus auth login dev@example.com --password='pa$$ w0rd;echo INJECTED'`,
		spy.calls[0].Line)
	assert.NotContains(t, logs.String(), "w0rd")
}

func TestScenario_AuthenticatePassesPasswordVerbatim(t *testing.T) {
	root := t.TempDir()
	writeScript(t, filepath.Join(root, "bin", "terminus"),
		`printf 'args:'; for a in "$@"; do printf ' [%s]' "$a"; done; echo`+"\n")

	sc := New(Options{
		Connection: config.NewConnection(map[string]string{
			config.KeyUsername: "dev user@example.com",
			config.KeyPassword: shellPassword,
		}),
		Builder: command.Builder{
			Root: root,
			Name: "terminus",
			Bin:  "bin/terminus",
			Env:  command.EnvNames{Cassette: "VCR_CASSETTE"},
		},
		Executor: &command.ShellExecutor{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	sc.Before([]string{"vcr auth_login"})

	require.NoError(t, sc.Authenticate(context.Background()))
	assert.Equal(t, 0, sc.State().ExitCode)
	assert.Equal(t,
		"args: [auth] [login] [dev user@example.com] [--password=pa$$ w0rd;echo INJECTED]\n",
		sc.State().LastOutput)
	assert.NoError(t, sc.ShouldNotGet("\nINJECTED"))
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		t.Setenv("PWD", abs)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			panic("testing.Chdir: " + err.Error())
		}
	})
}
