package app

import (
	"net/http"

	"github.com/cinepass/reservation-service/internal/domain"
)

type contextKey string

const callerContextKey = contextKey("caller")

// contextGetCaller returns the verified caller identity set by the
// authenticate middleware, or false for anonymous requests.
func contextGetCaller(r *http.Request) (domain.Caller, bool) {
	caller, ok := r.Context().Value(callerContextKey).(domain.Caller)
	return caller, ok
}

// mustGetCaller is for handlers behind requireAuthentication, where a
// missing caller means broken middleware ordering.
func mustGetCaller(r *http.Request) domain.Caller {
	caller, ok := contextGetCaller(r)
	if !ok {
		panic("missing caller identity in request context")
	}

	return caller
}
