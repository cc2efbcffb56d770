package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/bank-customer-api/internal/auth"
	"github.com/hongminglow/bank-customer-api/internal/authz"
)

// TokenParser validates a bearer token and decodes its claims.
type TokenParser interface {
	Parse(token string, now time.Time) (*authz.Claims, error)
}

// DenialRecorder is notified of every gate denial.
type DenialRecorder interface {
	Denied(reason string)
}

// Authenticate decodes a bearer token into request claims. Requests without a
// valid token continue unauthenticated; gates decide what that means.
func Authenticate(parser TokenParser, logger logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := parser.Parse(strings.TrimSpace(parts[1]), time.Now())
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				w.Header().Set("Token-Expired", "true")
			}
			logger.WithError(err).WithField("request_id", RequestID(r.Context())).Debug("bearer token rejected")
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(authz.WithClaims(r.Context(), claims)))
	})
}

// Require runs the gates against the request claims in order. Unauthenticated
// callers get an empty 401; other denials get the JSON payload with 403.
func Require(recorder DenialRecorder, gates ...authz.Gate) func(http.Handler) http.Handler {
	pipeline := authz.Pipeline(gates...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			denial := pipeline(authz.FromContext(r.Context()))
			if denial == nil {
				next.ServeHTTP(w, r)
				return
			}
			if recorder != nil {
				recorder.Denied(string(denial.Reason))
			}
			if denial.Status == http.StatusUnauthorized {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(denial.Status)
			if err := json.NewEncoder(w).Encode(denial); err != nil {
				logrus.WithError(err).Error("encode denial")
			}
		})
	}
}
