package registration

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the scenario context the registration steps use.
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string) error
	SwitchDevice(deviceID string)
	StatusCode() int
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers registration form step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrationSteps{tc: tc}

	ctx.Step(`^a filled registration form$`, steps.filledForm)
	ctx.Step(`^the "([^"]*)" field is "([^"]*)"$`, steps.setField)
	ctx.Step(`^the terms are not accepted$`, steps.rejectTerms)
	ctx.Step(`^I type the form without submitting$`, steps.saveDraft)
	ctx.Step(`^I reload the page$`, steps.reload)
	ctx.Step(`^I submit the form$`, steps.submit)
	ctx.Step(`^I reset the form$`, steps.reset)
	ctx.Step(`^I switch to device "([^"]*)"$`, steps.switchDevice)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^I should be redirected to "([^"]*)"$`, steps.redirectedTo)
	ctx.Step(`^the error "([^"]*)" should read "([^"]*)"$`, steps.fieldErrorReads)
	ctx.Step(`^the notice should read "([^"]*)"$`, steps.noticeReads)
	ctx.Step(`^the control "([^"]*)" should hold "([^"]*)"$`, steps.controlHolds)
	ctx.Step(`^every control should be empty$`, steps.controlsEmpty)
}

type registrationSteps struct {
	tc     TestContext
	fields map[string]any
}

func (s *registrationSteps) filledForm(ctx context.Context) error {
	s.fields = map[string]any{
		"name":   "Alice Smith",
		"email":  "f20210001@pilani.bits-pilani.ac.in",
		"phone":  "9876543210",
		"bitsId": "2021A7PS0001",
		"hostel": "Ram",
		"size":   "M",
		"terms":  true,
	}
	return nil
}

func (s *registrationSteps) setField(ctx context.Context, field, value string) error {
	if s.fields == nil {
		s.fields = map[string]any{}
	}
	s.fields[field] = value
	return nil
}

func (s *registrationSteps) rejectTerms(ctx context.Context) error {
	s.fields["terms"] = false
	return nil
}

func (s *registrationSteps) saveDraft(ctx context.Context) error {
	return s.tc.PUT("/registration/draft", s.fields)
}

func (s *registrationSteps) reload(ctx context.Context) error {
	return s.tc.GET("/registration/form")
}

func (s *registrationSteps) submit(ctx context.Context) error {
	return s.tc.POST("/registration/submit", s.fields)
}

func (s *registrationSteps) reset(ctx context.Context) error {
	return s.tc.POST("/registration/reset", nil)
}

func (s *registrationSteps) switchDevice(ctx context.Context, deviceID string) error {
	s.tc.SwitchDevice(deviceID)
	return nil
}

func (s *registrationSteps) statusShouldBe(ctx context.Context, status int) error {
	if got := s.tc.StatusCode(); got != status {
		return fmt.Errorf("expected status %d, got %d", status, got)
	}
	return nil
}

func (s *registrationSteps) redirectedTo(ctx context.Context, target string) error {
	return s.fieldEquals("redirect", target)
}

func (s *registrationSteps) noticeReads(ctx context.Context, notice string) error {
	return s.fieldEquals("error_description", notice)
}

func (s *registrationSteps) fieldErrorReads(ctx context.Context, id, message string) error {
	raw, err := s.tc.GetResponseField("fields")
	if err != nil {
		return err
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("fields is %T, not an object", raw)
	}
	if got := fields[id]; got != message {
		return fmt.Errorf("expected %s to read %q, got %v", id, message, got)
	}
	return nil
}

func (s *registrationSteps) controlHolds(ctx context.Context, name, value string) error {
	controls, err := s.controls()
	if err != nil {
		return err
	}
	for _, c := range controls {
		if c["name"] == name {
			if got, _ := c["value"].(string); got != value {
				return fmt.Errorf("control %s holds %q, want %q", name, got, value)
			}
			return nil
		}
	}
	return fmt.Errorf("control %s not found", name)
}

func (s *registrationSteps) controlsEmpty(ctx context.Context) error {
	controls, err := s.controls()
	if err != nil {
		return err
	}
	for _, c := range controls {
		if v, _ := c["value"].(string); v != "" {
			return fmt.Errorf("control %v still holds %q", c["name"], v)
		}
		if checked, _ := c["checked"].(bool); checked {
			return fmt.Errorf("control %v is still checked", c["name"])
		}
	}
	return nil
}

func (s *registrationSteps) controls() ([]map[string]any, error) {
	raw, err := s.tc.GetResponseField("controls")
	if err != nil {
		return nil, err
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("controls is %T, not a list", raw)
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if c, ok := item.(map[string]any); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *registrationSteps) fieldEquals(field, want string) error {
	got, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s %q, got %v", field, want, got)
	}
	return nil
}
