package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"regdesk/internal/availability"
	availabilityhandler "regdesk/internal/availability/handler"
	"regdesk/internal/registration/models"
	"regdesk/internal/registration/service"
	"regdesk/internal/registration/store/memory"
	"regdesk/pkg/requestcontext"
	"regdesk/pkg/testutil"
)

var fixedNow = time.Date(2024, time.May, 10, 9, 30, 0, 0, time.UTC)

type brokenRegistry struct{}

func (brokenRegistry) Lookup(context.Context, string) (bool, error) { return false, nil }
func (brokenRegistry) Append(context.Context, *models.Record) error {
	return errors.New("disk full")
}
func (brokenRegistry) ListAll(context.Context) ([]*models.Record, error) {
	return nil, errors.New("disk unreadable")
}

func validBody(username string) map[string]any {
	return map[string]any{
		"username":        username,
		"email":           "a@b.com",
		"password":        "longenough1",
		"confirmPassword": "longenough1",
		"address":         "x",
		"skills":          []string{"go"},
	}
}

type HandlerSuite struct {
	suite.Suite
	registry service.Registry
	router   http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.build(memory.New())
}

func (s *HandlerSuite) build(registry service.Registry) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(registry, service.WithLogger(logger))
	s.Require().NoError(err)
	checker, err := availability.New(registry)
	s.Require().NoError(err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(requestcontext.WithTime(req.Context(), fixedNow)))
		})
	})
	New(svc, logger).Register(r)
	availabilityhandler.New(checker, logger).Register(r)
	s.registry = registry
	s.router = r
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), method, path, body))
}

func (s *HandlerSuite) register(body any) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/register", body)
}

func (s *HandlerSuite) TestRegisterSuccessThenListed() {
	rr := s.register(validBody("newuser1"))
	testutil.AssertEnvelope(s.T(), rr, http.StatusOK, true, MsgRegistered)

	rr = s.do(http.MethodGet, "/api/users", nil)
	s.Equal(http.StatusOK, rr.Code)
	users := testutil.UnmarshalResponse[[]UserResponse](s.T(), rr)
	s.Require().Len(users, 1)
	s.Equal("newuser1", users[0].Username)
	s.Equal([]string{"go"}, users[0].Skills)
	s.Equal("2024-05-10T09:30:00Z", users[0].RegisteredAt)
	s.Empty(users[0].DateOfBirth)
}

func (s *HandlerSuite) TestPasswordNeverReturned() {
	s.register(validBody("newuser1"))
	rr := s.do(http.MethodGet, "/api/users", nil)
	s.NotContains(rr.Body.String(), "longenough1")
}

func (s *HandlerSuite) TestDuplicateUsername() {
	s.register(validBody("newuser1"))

	rr := s.register(validBody("NEWUSER1"))
	testutil.AssertEnvelope(s.T(), rr, http.StatusBadRequest, false, MsgUsernameTaken)

	records, err := s.registry.ListAll(context.Background())
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *HandlerSuite) TestCheckUsernameAfterRegister() {
	s.register(validBody("newuser1"))

	rr := s.do(http.MethodPost, "/api/check-username", map[string]string{"username": "newuser1"})
	s.Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[map[string]bool](s.T(), rr)
	s.True(resp["ok"])
	s.True(resp["taken"])
}

func (s *HandlerSuite) TestMissingRequiredFields() {
	for _, field := range []string{"username", "email", "password"} {
		s.Run(field, func() {
			body := validBody("newuser1")
			delete(body, field)
			rr := s.register(body)
			testutil.AssertEnvelope(s.T(), rr, http.StatusBadRequest, false, MsgMissingFields)
		})
	}
}

func (s *HandlerSuite) TestValidationFailureReportsFields() {
	body := validBody("ab")
	body["phone"] = "123"
	rr := s.register(body)

	env := testutil.AssertEnvelope(s.T(), rr, http.StatusBadRequest, false, MsgValidationFailed)
	s.Equal("3-20 chars; letters, numbers, underscore", env.Errors["username"])
	s.Equal("Enter 10 digit phone", env.Errors["phone"])
	s.NotContains(env.Errors, "confirmPassword")
}

func (s *HandlerSuite) TestConfirmPassword() {
	s.Run("absent counts as matching", func() {
		body := validBody("noconfirm")
		delete(body, "confirmPassword")
		testutil.AssertEnvelope(s.T(), s.register(body), http.StatusOK, true, MsgRegistered)
	})

	s.Run("present and different is rejected", func() {
		body := validBody("mismatch")
		body["confirmPassword"] = "different1"
		env := testutil.AssertEnvelope(s.T(), s.register(body), http.StatusBadRequest, false, MsgValidationFailed)
		s.Equal("Passwords do not match", env.Errors["confirmPassword"])
	})
}

func (s *HandlerSuite) TestInvalidBody() {
	testutil.AssertEnvelope(s.T(), s.register(`{"username":`), http.StatusBadRequest, false, MsgInvalidBody)
	testutil.AssertEnvelope(s.T(), s.register(`{"skills":"go"}`), http.StatusBadRequest, false, MsgInvalidBody)
}

func (s *HandlerSuite) TestStorageFailures() {
	s.build(brokenRegistry{})

	testutil.AssertEnvelope(s.T(), s.register(validBody("newuser1")), http.StatusInternalServerError, false, MsgUnableToSave)
	testutil.AssertEnvelope(s.T(), s.do(http.MethodGet, "/api/users", nil), http.StatusInternalServerError, false, MsgUnableToLoad)
}

func (s *HandlerSuite) TestEmptyListIsArray() {
	rr := s.do(http.MethodGet, "/api/users", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`[]`, rr.Body.String())
}
