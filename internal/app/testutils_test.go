package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cinepass/reservation-service/internal/domain"
	"github.com/cinepass/reservation-service/internal/mocks"
	"github.com/cinepass/reservation-service/internal/queue"
	"github.com/cinepass/reservation-service/internal/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

const testJWTSecret = "test-jwt-secret"

func newTestApplication(opts ...func(*Application)) *Application {
	app := &Application{
		config: Config{
			Env:       "test",
			JWTSecret: testJWTSecret,
		},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		validator: validator.NewValidator(),
		redis:     newCacheStub(),
		events:    queue.NewNoopPublisher(),
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// newCacheStub returns a redis mock that behaves like an empty, writable
// cache. Tests that assert on cache interactions install their own mock.
func newCacheStub() *mocks.MockRedisClient {
	cache := new(mocks.MockRedisClient)
	cache.On("Get", mock.Anything, mock.Anything).Return(redis.NewStringResult("", redis.Nil)).Maybe()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(redis.NewStatusResult("OK", nil)).Maybe()
	cache.On("Del", mock.Anything, mock.Anything).Return(redis.NewIntResult(1, nil)).Maybe()

	return cache
}

func signTestToken(t *testing.T, userID int, role domain.Role) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  strconv.Itoa(userID),
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}

	return signed
}

func executeRequest(t *testing.T, app *Application, method, url string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		// Raw payloads, used to exercise malformed JSON handling.
		reader = strings.NewReader(b)
	default:
		jsonData, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	w := httptest.NewRecorder()
	app.Routes().ServeHTTP(w, r)

	return w
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantErrMessage string) {
	t.Helper()

	if wantStatus >= 200 && wantStatus < 300 {
		return
	}

	var errorResp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}

	if wantErrMessage != "" && errorResp.Message != wantErrMessage {
		t.Errorf("Error message = %v, want %v", errorResp.Message, wantErrMessage)
	}
}

func checkValidationResponse(t *testing.T, w *httptest.ResponseRecorder, wantField, wantIssue string) {
	t.Helper()

	var validationResp ValidationErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
		t.Fatalf("Failed to decode validation error response: %v", err)
	}

	for _, vErr := range validationResp.ValidationErrors {
		if vErr.Field == wantField && vErr.Issue == wantIssue {
			return
		}
	}

	t.Errorf("Expected validation error %q on field %q not found in %+v", wantIssue, wantField, validationResp.ValidationErrors)
}
