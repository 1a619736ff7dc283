package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cinepass/reservation-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

func (app *Application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// authenticate verifies the bearer token issued by the auth service and puts
// the (user_id, role) claims into the request context. Requests without an
// Authorization header pass through anonymously; requireAuthentication
// decides which routes need an identity.
func (app *Application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")
		if authorizationHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		headerParts := strings.Split(authorizationHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			app.invalidAuthenticationTokenResponse(w, r)
			return
		}

		caller, err := app.parseAccessToken(headerParts[1])
		if err != nil {
			app.invalidAuthenticationTokenResponse(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), callerContextKey, caller)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *Application) parseAccessToken(tokenString string) (domain.Caller, error) {
	token, err := jwt.Parse(
		tokenString,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}

			return []byte(app.config.JWTSecret), nil
		},
	)
	if err != nil || !token.Valid {
		return domain.Caller{}, fmt.Errorf("invalid access token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Caller{}, fmt.Errorf("unexpected claims format")
	}

	userID, err := subjectToUserID(claims["sub"])
	if err != nil {
		return domain.Caller{}, err
	}

	role, _ := claims["role"].(string)
	if role != string(domain.RoleUser) && role != string(domain.RoleAdmin) {
		return domain.Caller{}, fmt.Errorf("unknown role claim: %q", role)
	}

	return domain.Caller{UserID: userID, Role: domain.Role(role)}, nil
}

// subjectToUserID tolerates both claim encodings the auth service has used:
// a JSON number and a stringified ID.
func subjectToUserID(sub any) (int, error) {
	switch v := sub.(type) {
	case float64:
		return int(v), nil
	case string:
		userID, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("malformed subject claim: %q", v)
		}
		return userID, nil
	default:
		return 0, fmt.Errorf("missing subject claim")
	}
}

func (app *Application) requireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := contextGetCaller(r); !ok {
			app.authenticationRequiredResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *Application) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := mustGetCaller(r)

		if !caller.IsAdmin() {
			app.forbiddenResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
