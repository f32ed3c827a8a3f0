// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dikshapatel15/Decentralized-Voting-System/auth"
	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

// TokenVerifier resolves a bearer token to the caller principal.
type TokenVerifier interface {
	Verify(token string) (election.Principal, error)
}

type contextKeyCaller struct{}

// CallerFrom returns the authenticated caller stored by RequireCaller.
func CallerFrom(ctx context.Context) (election.Principal, bool) {
	p, ok := ctx.Value(contextKeyCaller{}).(election.Principal)
	return p, ok && p != ""
}

// WithCaller stores principal as the authenticated caller.
func WithCaller(ctx context.Context, principal election.Principal) context.Context {
	return context.WithValue(ctx, contextKeyCaller{}, principal)
}

// RequireCaller rejects requests without a valid bearer token with 401 and
// stores the token subject as the caller otherwise.
func RequireCaller(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				logger.WarnContext(ctx, "unauthenticated request - missing token",
					"path", r.URL.Path,
					"request_id", GetRequestID(ctx),
				)
				ErrorResponse(w, http.StatusUnauthorized, "unauthenticated", "missing or malformed Authorization header")
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthenticated request - invalid token",
					"path", r.URL.Path,
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				msg := "invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = "token has expired"
				}
				ErrorResponse(w, http.StatusUnauthorized, "unauthenticated", msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(ctx, principal)))
		})
	}
}
