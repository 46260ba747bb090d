package handler_test

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"rollcall/internal/auth"
	authhandler "rollcall/internal/auth/handler"
	"rollcall/pkg/testutil"
)

type AuthHandlerSuite struct {
	suite.Suite
	router chi.Router
	tokens *auth.JWTService
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.tokens = auth.NewJWTService("test-signing-key", "rollcall", time.Hour)
	isAdmin := func(email string) bool { return email == "root@rollcall.dev" }
	service := auth.NewService(auth.NewMemoryStore(), s.tokens, isAdmin, logger)
	handler := authhandler.New(service, logger)

	s.router = chi.NewRouter()
	handler.Register(s.router)
}

func (s *AuthHandlerSuite) TestRegisterAndIssueToken() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", map[string]string{
		"email":    "Org@OU.edu.vn",
		"password": "correct-horse",
		"role":     "organizer",
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "email", "org@ou.edu.vn")
	testutil.AssertJSONContains(s.T(), rr, "role", "organizer")

	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/token", map[string]string{
		"email":    "org@ou.edu.vn",
		"password": "correct-horse",
	})
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "token_type", "Bearer")

	body := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
	claims, err := s.tokens.ValidateToken((*body)["access_token"])
	s.Require().NoError(err)
	s.Equal("org@ou.edu.vn", claims.Email)
	s.Equal("organizer", claims.Role)
}

func (s *AuthHandlerSuite) TestRegisterDuplicateEmail() {
	body := map[string]string{"email": "sv@ou.edu.vn", "password": "correct-horse"}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", body))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", body))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
}

func (s *AuthHandlerSuite) TestRegisterShortPassword() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", map[string]string{
		"email":    "sv@ou.edu.vn",
		"password": "short",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *AuthHandlerSuite) TestTokenWrongPassword() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", map[string]string{
		"email":    "sv@ou.edu.vn",
		"password": "correct-horse",
	}))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/token", map[string]string{
		"email":    "sv@ou.edu.vn",
		"password": "wrong",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *AuthHandlerSuite) TestTokenUnknownEmail() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/token", map[string]string{
		"email":    "nobody@ou.edu.vn",
		"password": "correct-horse",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *AuthHandlerSuite) TestMalformedBody() {
	rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/auth/register", "{not json"))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}
