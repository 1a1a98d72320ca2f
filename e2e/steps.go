// Package e2e drives a running regdesk server through Gherkin scenarios.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cucumber/godog"

	"regdesk/e2e/steps/registration"
)

var deviceSeq atomic.Int64

// TestContext holds the HTTP client and the last response of one scenario.
// Each scenario acts as a fresh browser with its own device ID.
type TestContext struct {
	BaseURL  string
	DeviceID string
	client   *http.Client

	status int
	body   map[string]any
}

// NewTestContext creates a context for a server at baseURL.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL:  baseURL,
		DeviceID: "e2e-" + strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatInt(deviceSeq.Add(1), 10),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	registration.RegisterSteps(ctx, tc)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

// SwitchDevice makes following requests come from another browser. The
// name is scoped to this scenario so reruns start clean.
func (tc *TestContext) SwitchDevice(name string) {
	tc.DeviceID = tc.DeviceID + "-" + name
}

func (tc *TestContext) StatusCode() int {
	return tc.status
}

// GetResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	v, ok := tc.body[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q", field)
	}
	return v, nil
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Device-ID", tc.DeviceID)

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.status = resp.StatusCode
	tc.body = nil
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tc.body); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}
