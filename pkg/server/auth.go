package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heliotrack/heliotrack/pkg/log"
)

// authMiddleware requires a valid bearer ID token on mutating requests.
// Reads stay public. If no verifiers are configured every request passes.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))

		if len(s.oidcVerifiers) == 0 || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Ctx(ctx).WarnContext(ctx, "missing auth header")
			writeJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "invalid auth header")
			writeJSONError(w, "invalid auth header", http.StatusBadRequest)
			return
		}

		subject, err := s.authenticateToken(ctx, token)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "auth token validation failed", slog.Any("error", err))
			writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
			return
		}

		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("authSubject", subject)))
		log.Ctx(ctx).DebugContext(ctx, "authenticated request")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticateToken tries every configured verifier and returns the token's
// subject from the first one that accepts it.
func (s *Server) authenticateToken(ctx context.Context, token string) (string, error) {
	var errs []error

	for providerName, verifier := range s.oidcVerifiers {
		idToken, err := verifier(ctx, token)
		if err == nil {
			return idToken.Subject, nil
		}
		errs = append(errs, fmt.Errorf("%s verifier failed: %w", providerName, err))
	}

	if len(errs) > 1 {
		return "", errors.Join(errs...)
	}
	if len(errs) == 1 {
		return "", errs[0]
	}
	return "", errors.New("no valid audiences configured or token invalid")
}
