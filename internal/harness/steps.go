// SPDX-License-Identifier: AGPL-3.0-or-later

package harness

import (
	"context"

	"github.com/cucumber/godog"

	"github.com/bartekus/clirig/internal/tags"
)

// Register binds the step definitions and the before-scenario hook to sc.
// godog calls this once per scenario; s itself lives for the whole run.
func (s *ScenarioContext) Register(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		s.Before(ScenarioTags(scenario))
		return ctx, nil
	})

	sc.Step(`^I am authenticating$`, s.Authenticate)
	sc.Step(`^I am in directory "([^"]*)"$`, s.InDirectory)
	sc.Step(`^I enter "([^"]*)"$`, s.Enter)
	sc.Step(`^I run "([^"]*)"$`, s.Run)
	sc.Step(`^I should get:$`, func(doc *godog.DocString) error {
		return s.ShouldGet(doc.Content)
	})
	sc.Step(`^I should not get:$`, func(doc *godog.DocString) error {
		return s.ShouldNotGet(doc.Content)
	})
}

// ScenarioTags returns the scenario's tags in "<namespace> <value>" form.
func ScenarioTags(scenario *godog.Scenario) []string {
	raw := make([]string, 0, len(scenario.Tags))
	for _, t := range scenario.Tags {
		raw = append(raw, t.Name)
	}
	return tags.NormalizeAll(raw)
}
