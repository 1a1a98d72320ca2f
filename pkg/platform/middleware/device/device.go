// Package device identifies the browser a request comes from. The device ID
// scopes drafts and the submission ledger the way browser-local storage would.
package device

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"regdesk/pkg/requestcontext"
)

const (
	CookieName = "device_id"
	HeaderName = "X-Device-ID"

	// maxDeviceIDLength bounds client-supplied identifiers used in storage keys.
	maxDeviceIDLength = 128

	cookieMaxAge = 365 * 24 * 60 * 60
)

// Middleware resolves the device ID from the X-Device-ID header or the
// device_id cookie, issuing a new cookie when neither is present.
func Middleware(secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := fromRequest(r)
			if deviceID == "" {
				deviceID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    deviceID,
					Path:     "/",
					MaxAge:   cookieMaxAge,
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}

			userAgent := r.Header.Get("User-Agent")
			ctx := requestcontext.WithDeviceID(r.Context(), deviceID)
			ctx = requestcontext.WithDeviceLabel(ctx, ParseUserAgent(userAgent))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDeviceID retrieves the device identifier from the context.
func GetDeviceID(ctx context.Context) string {
	return requestcontext.DeviceID(ctx)
}

func fromRequest(r *http.Request) string {
	if v := sanitize(r.Header.Get(HeaderName)); v != "" {
		return v
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return sanitize(c.Value)
	}
	return ""
}

// sanitize drops identifiers that are empty, too long or contain characters
// outside [A-Za-z0-9_-].
func sanitize(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxDeviceIDLength {
		return ""
	}
	for _, r := range v {
		ok := r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return ""
		}
	}
	return v
}

// ParseUserAgent renders a short label such as "Chrome on Linux".
func ParseUserAgent(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}
