package device

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"regdesk/pkg/requestcontext"
)

type DeviceMiddlewareSuite struct {
	suite.Suite
	seen    string
	label   string
	handler http.Handler
}

func (s *DeviceMiddlewareSuite) SetupTest() {
	s.seen, s.label = "", ""
	s.handler = Middleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.seen = requestcontext.DeviceID(r.Context())
		s.label = requestcontext.DeviceLabel(r.Context())
	}))
}

func TestDeviceMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(DeviceMiddlewareSuite))
}

func (s *DeviceMiddlewareSuite) TestResolution() {
	s.Run("header wins over cookie", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderName, "from-header")
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		s.Equal("from-header", s.seen)
		s.Empty(rec.Result().Cookies(), "no cookie is issued for a known device")
	})

	s.Run("cookie is used when no header", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
		s.handler.ServeHTTP(httptest.NewRecorder(), req)

		s.Equal("from-cookie", s.seen)
	})

	s.Run("new device gets a cookie", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		s.NotEmpty(s.seen)
		cookies := rec.Result().Cookies()
		s.Require().Len(cookies, 1)
		s.Equal(CookieName, cookies[0].Name)
		s.Equal(s.seen, cookies[0].Value)
		s.True(cookies[0].HttpOnly)
	})

	s.Run("unsafe identifiers are replaced", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderName, "abc:def*")
		s.handler.ServeHTTP(httptest.NewRecorder(), req)

		s.NotEqual("abc:def*", s.seen)
		s.NotEmpty(s.seen)
	})

	s.Run("overlong identifiers are replaced", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderName, strings.Repeat("a", maxDeviceIDLength+1))
		s.handler.ServeHTTP(httptest.NewRecorder(), req)

		s.Len(s.seen, 36)
	})
}

func (s *DeviceMiddlewareSuite) TestUserAgentParsing() {
	s.Run("empty user agent returns unknown device", func() {
		s.Equal("Unknown Device", ParseUserAgent(""))
	})

	s.Run("firefox on linux includes browser and OS", func() {
		result := ParseUserAgent("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
		s.Contains(result, "Firefox")
		s.Contains(result, " on ")
	})

	s.Run("label reaches the request context", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		s.handler.ServeHTTP(httptest.NewRecorder(), req)
		s.Contains(s.label, "Chrome")
	})
}
