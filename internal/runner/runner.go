package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/bartekus/clirig/internal/harness"
)

// maxNoteLines bounds how much of a failure message is persisted.
const maxNoteLines = 20

// ErrScenariosFailed is returned when at least one scenario failed.
var ErrScenariosFailed = errors.New("scenarios failed")

// Options configure the godog suite a Runner drives.
type Options struct {
	Tags          string
	Format        string
	Strict        bool
	StopOnFailure bool
	NoColors      bool
	// Output receives formatter output and the run summary.
	Output io.Writer
}

// Runner executes feature files against a harness and records the outcome.
type Runner struct {
	harness *harness.ScenarioContext
	store   *StateStore
	opts    Options
	now     func() time.Time
}

// NewRunner creates a runner for h, persisting results in store.
func NewRunner(h *harness.ScenarioContext, store *StateStore, opts Options) *Runner {
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Format == "" {
		opts.Format = "pretty"
	}
	return &Runner{
		harness: h,
		store:   store,
		opts:    opts,
		now:     time.Now,
	}
}

// Run executes every scenario found in paths.
// Returns an error wrapping ErrScenariosFailed if ANY scenario failed.
func (r *Runner) Run(ctx context.Context, paths []string) error {
	return r.executeSuite(ctx, paths)
}

// Resume reruns only the feature files that had failures in the last run.
func (r *Runner) Resume(ctx context.Context) error {
	failed, err := r.store.LoadFailedFeatures()
	if err != nil {
		return fmt.Errorf("loading failed features: %w", err)
	}
	if len(failed) == 0 {
		_, _ = fmt.Fprintln(r.opts.Output, "No failed scenarios to resume.")
		return nil
	}
	return r.executeSuite(ctx, failed)
}

func (r *Runner) executeSuite(ctx context.Context, paths []string) error {
	lastRun := LastRun{
		ID:        uuid.NewString(),
		StartedAt: r.now().UTC(),
		Status:    string(StatusPass),
	}
	failedFeatures := make(map[string]bool)
	var writeErr error

	record := func(res ScenarioResult) {
		lastRun.Scenarios = append(lastRun.Scenarios, res.Scenario)
		if res.Status == StatusFail {
			lastRun.Failed = append(lastRun.Failed, res.Scenario)
			failedFeatures[res.Feature] = true
		}
		if _, err := r.store.WriteScenarioResult(res); err != nil && writeErr == nil {
			writeErr = fmt.Errorf("writing result for %s: %w", res.Scenario, err)
		}
	}

	suite := godog.TestSuite{
		Name: "clirig",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			r.harness.Register(sc)
			sc.After(func(ctx context.Context, scenario *godog.Scenario, err error) (context.Context, error) {
				record(r.result(scenario, err))
				return ctx, nil
			})
		},
		Options: &godog.Options{
			Format:         r.opts.Format,
			Tags:           r.opts.Tags,
			Paths:          paths,
			Strict:         r.opts.Strict,
			StopOnFailure:  r.opts.StopOnFailure,
			NoColors:       r.opts.NoColors,
			Output:         r.opts.Output,
			Concurrency:    1,
			DefaultContext: ctx,
		},
	}

	status := suite.Run()

	for f := range failedFeatures {
		lastRun.FailedFeatures = append(lastRun.FailedFeatures, f)
	}
	sort.Strings(lastRun.FailedFeatures)
	if status != 0 || len(lastRun.Failed) > 0 {
		lastRun.Status = string(StatusFail)
	}

	if err := r.store.WriteLastRun(lastRun); err != nil {
		return fmt.Errorf("writing last run: %w", err)
	}
	if writeErr != nil {
		return writeErr
	}

	_, _ = fmt.Fprintf(r.opts.Output, "\nRun %s: %d scenario(s), %d failed\n",
		lastRun.ID, len(lastRun.Scenarios), len(lastRun.Failed))

	if len(lastRun.Failed) > 0 {
		return fmt.Errorf("%w: %s", ErrScenariosFailed, strings.Join(lastRun.Failed, ", "))
	}
	if status != 0 {
		return fmt.Errorf("suite exited with status %d", status)
	}
	return nil
}

func (r *Runner) result(scenario *godog.Scenario, err error) ScenarioResult {
	st := r.harness.State()
	res := ScenarioResult{
		Scenario: scenario.Name,
		Feature:  scenario.Uri,
		Cassette: st.Cassette,
		Status:   StatusPass,
		ExitCode: st.ExitCode,
	}

	switch {
	case err == nil:
	case !r.opts.Strict && (errors.Is(err, godog.ErrPending) || errors.Is(err, godog.ErrUndefined)):
		res.Status = StatusSkip
		res.Note = err.Error()
	default:
		res.Status = StatusFail
		res.Note = truncate(err.Error())
	}
	return res
}

// truncate keeps the last lines of long failure output.
func truncate(note string) string {
	lines := strings.Split(strings.TrimSpace(note), "\n")
	if len(lines) <= maxNoteLines {
		return strings.Join(lines, "\n")
	}
	return "...(truncated)...\n" + strings.Join(lines[len(lines)-maxNoteLines:], "\n")
}
