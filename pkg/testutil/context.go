package testutil

import (
	"context"
	"net/http"
	"time"

	"regdesk/pkg/platform/middleware/device"
	"regdesk/pkg/requestcontext"
)

// WithDevice marks the request as coming from deviceID, the way a returning
// browser would through the device header.
func WithDevice(req *http.Request, deviceID string) *http.Request {
	req.Header.Set(device.HeaderName, deviceID)
	return req
}

// DeviceContext returns a context carrying deviceID and a fixed request time,
// for service tests that bypass the HTTP middleware chain.
func DeviceContext(deviceID string, now time.Time) context.Context {
	ctx := requestcontext.WithDeviceID(context.Background(), deviceID)
	return requestcontext.WithTime(ctx, now)
}
