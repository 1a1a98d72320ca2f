package e2e

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the Gherkin scenarios against REGDESK_BASE_URL.
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("REGDESK_BASE_URL")
	if baseURL == "" {
		t.Skip("REGDESK_BASE_URL not set")
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			RegisterSteps(sc, NewTestContext(baseURL))
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("e2e scenarios failed")
	}
}
