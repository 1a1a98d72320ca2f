package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"regdesk/internal/platform/metrics"
	"regdesk/internal/registration/handler/mocks"
	"regdesk/internal/registration/models"
	"regdesk/internal/registration/notifier"
	"regdesk/internal/registration/service"
	"regdesk/internal/registration/store/draft"
	"regdesk/internal/registration/store/ledger"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/testutil"
)

const testDevice = "device-1"

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger, metrics.New(prometheus.NewRegistry()), false).Register(s.router)
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithDevice(req, testDevice))
}

func validBody() map[string]any {
	return map[string]any{
		"name":   "Alice Smith",
		"email":  "f20210001@pilani.bits-pilani.ac.in",
		"phone":  "9876543210",
		"bitsId": "2021A7PS0001",
		"hostel": "Ram",
		"size":   "M",
		"terms":  true,
	}
}

func (s *HandlerSuite) TestSubmit() {
	s.Run("accepted returns the redirect", func() {
		s.service.EXPECT().Submit(gomock.Any(), testDevice, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, req models.SubmitRequest) (*models.SubmitResult, error) {
				s.Equal("2021A7PS0001", req.BitsID)
				s.True(req.Terms)
				return &models.SubmitResult{State: models.StateAccepted, Outcome: models.OutcomeAccepted, Redirect: "confirmation.html"}, nil
			})

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/registration/submit", validBody()))

		testutil.AssertStatusOK(s.T(), rr)
		var resp map[string]any
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
		s.Equal("accepted", resp["state"])
		s.Equal("confirmation.html", resp["redirect"])
	})

	s.Run("invalid returns every field error", func() {
		s.service.EXPECT().Submit(gomock.Any(), testDevice, gomock.Any()).Return(&models.SubmitResult{
			State:   models.StateRejected,
			Outcome: models.OutcomeInvalid,
			Errors:  models.FieldErrors{"name-error": "Name must be 5-50 characters", "terms-error": "You must agree to terms"},
		}, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/registration/submit", map[string]any{"name": "Al"}))

		testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
		var resp struct {
			Error  string            `json:"error"`
			State  string            `json:"state"`
			Fields map[string]string `json:"fields"`
		}
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
		s.Equal("validation_error", resp.Error)
		s.Equal("rejected", resp.State)
		s.Equal("Name must be 5-50 characters", resp.Fields["name-error"])
		s.Len(resp.Fields, 2)
	})

	s.Run("duplicate returns conflict with the notice", func() {
		s.service.EXPECT().Submit(gomock.Any(), testDevice, gomock.Any()).Return(&models.SubmitResult{
			State:   models.StateRejected,
			Outcome: models.OutcomeDuplicate,
			Notice:  models.DuplicateNotice,
		}, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/registration/submit", validBody()))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("storage failure hides the cause", func() {
		s.service.EXPECT().Submit(gomock.Any(), testDevice, gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("redis down"), dErrors.CodeInternal, "failed to record submission"))

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/registration/submit", validBody()))

		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("internal_error", body["error"])
		s.NotContains(body, "error_description")
	})

	s.Run("malformed body is a bad request", func() {
		rr := s.do(testutil.NewRequestWithBody(s.T(), http.MethodPost, "/registration/submit", `{"name":`))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("non-json content type is rejected", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/registration/submit", "name=Alice")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rr := s.do(req)

		testutil.AssertStatus(s.T(), rr, http.StatusUnsupportedMediaType)
	})
}

func (s *HandlerSuite) TestDraftAndForm() {
	s.Run("save draft passes fields through", func() {
		s.service.EXPECT().SaveInput(gomock.Any(), testDevice, map[string]any{"name": "Ali", "terms": true}).Return(nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/registration/draft", map[string]any{"name": "Ali", "terms": true}))

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("restore returns controls", func() {
		s.service.EXPECT().Restore(gomock.Any(), testDevice).Return(&service.FormView{
			State:    models.StateIdle,
			Controls: []models.Control{{Name: "name", Kind: models.ControlText, Value: "Ali"}},
		}, nil)

		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/registration/form"))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "state", "idle")
	})

	s.Run("reset", func() {
		s.service.EXPECT().Reset(gomock.Any(), testDevice).Return(nil)

		rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/registration/reset"))

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("cancelled request maps to timeout", func() {
		s.service.EXPECT().Reset(gomock.Any(), testDevice).Return(dErrors.New(dErrors.CodeTimeout, "request cancelled"))

		rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/registration/reset"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusGatewayTimeout, "timeout")
	})
}

// TestRegistrationFlow drives the real controller and in-memory stores
// through the HTTP surface, with the outbound POST going to a test server.
func TestRegistrationFlow(t *testing.T) {
	var posts atomic.Int32
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(remote.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(draft.NewInMemory(), ledger.NewInMemory(), notifier.NewHTTP(remote.URL), service.WithLogger(logger))
	router := chi.NewRouter()
	New(svc, logger, nil, false).Register(router)

	send := func(req *http.Request) *httptest.ResponseRecorder {
		return testutil.DoRequest(router, testutil.WithDevice(req, "flow-device"))
	}

	testutil.Given(t, "a partially filled form", func(t *testing.T) {
		rr := send(testutil.NewJSONRequest(t, http.MethodPut, "/registration/draft", map[string]any{"name": "Alice Smith", "size": "M"}))
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		testutil.When(t, "the page reloads", func(t *testing.T) {
			rr := send(testutil.NewRequest(t, http.MethodGet, "/registration/form"))
			view := testutil.UnmarshalResponse[service.FormView](t, rr)

			testutil.Then(t, "the draft values are restored", func(t *testing.T) {
				values := map[string]string{}
				for _, c := range view.Controls {
					values[c.Name] = c.Value
				}
				assert.Equal(t, "Alice Smith", values["name"])
				assert.Equal(t, "M", values["size"])
			})
		})
	})

	testutil.Given(t, "a valid submission", func(t *testing.T) {
		rr := send(testutil.NewJSONRequest(t, http.MethodPost, "/registration/submit", validBody()))

		testutil.Then(t, "it is accepted even though the remote endpoint fails", func(t *testing.T) {
			testutil.AssertStatusOK(t, rr)
			testutil.AssertJSONContains(t, rr, "redirect", "confirmation.html")
			assert.Equal(t, int32(1), posts.Load())
		})

		testutil.Then(t, "the draft is gone", func(t *testing.T) {
			rr := send(testutil.NewRequest(t, http.MethodGet, "/registration/form"))
			view := testutil.UnmarshalResponse[service.FormView](t, rr)
			for _, c := range view.Controls {
				assert.Empty(t, c.Value, c.Name)
				assert.False(t, c.Checked, c.Name)
			}
		})
	})

	testutil.Given(t, "the same BITS ID with another email", func(t *testing.T) {
		body := validBody()
		body["email"] = "f20210002@goa.bits-pilani.ac.in"
		rr := send(testutil.NewJSONRequest(t, http.MethodPost, "/registration/submit", body))

		testutil.Then(t, "it is blocked as a duplicate without a second POST", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
			require.Equal(t, int32(1), posts.Load())
		})
	})
}
