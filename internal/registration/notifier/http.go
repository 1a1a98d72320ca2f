package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"regdesk/internal/registration/models"
)

// DefaultURL is the remote endpoint registrations are posted to.
const DefaultURL = "https://www.foo.com"

// HTTP posts each submission as a JSON body. The response status is not
// inspected; only transport failures count as errors.
type HTTP struct {
	client  *http.Client
	url     string
	timeout time.Duration
}

// HTTPOption configures an HTTP notifier.
type HTTPOption func(*HTTP)

// WithClient overrides the http.Client used for dispatch.
func WithClient(client *http.Client) HTTPOption {
	return func(n *HTTP) {
		if client != nil {
			n.client = client
		}
	}
}

// WithTimeout bounds each dispatch. Zero leaves it bounded only by the caller's context.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(n *HTTP) {
		n.timeout = timeout
	}
}

func NewHTTP(url string, opts ...HTTPOption) *HTTP {
	if url == "" {
		url = DefaultURL
	}
	n := &HTTP{client: http.DefaultClient, url: url}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

func (n *HTTP) Send(ctx context.Context, submission models.Submission) error {
	body, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post %s: %v", ErrNetwork, n.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
