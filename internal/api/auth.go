package api

import (
	"context"
	"net/http"
	"strings"

	"slotbook/internal/domain"
	"slotbook/internal/models"

	"github.com/julienschmidt/httprouter"
)

type callerKey struct{}

// legacyTokenHeader is accepted when no Authorization header is sent.
const legacyTokenHeader = "X-Auth-Token"

func withCaller(ctx context.Context, caller models.CallerIdentity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the identity attached by requireAuth.
func CallerFromContext(ctx context.Context) (models.CallerIdentity, bool) {
	caller, ok := ctx.Value(callerKey{}).(models.CallerIdentity)
	return caller, ok
}

// bearerToken extracts the token from "Authorization: Bearer <jwt>".
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return strings.TrimSpace(r.Header.Get(legacyTokenHeader))
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAuth rejects requests without a valid token and passes the caller on in the context.
func (s *HTTPServer) requireAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := bearerToken(r)
		if token == "" {
			s.fail(w, r, domain.ErrUnauthorized)
			return
		}
		caller, err := s.users.VerifyToken(token)
		if err != nil {
			s.fail(w, r, domain.ErrUnauthorized)
			return
		}
		next(w, r.WithContext(withCaller(r.Context(), caller)), ps)
	}
}
