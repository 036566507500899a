package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"commerce-service/internal/auth"
)

type callerKey struct{}

// RequireAuthentication resolves the caller through the Authenticator and
// rejects the request with 401 when that fails. The caller is only carried
// to the handler, which passes it to the workflow explicitly.
func (h *HTTPHandler) RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.authn.Authenticate(r)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) {
				log.Printf("ERROR: Authentication failed: %v", err)
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="commerce"`)
			respondWithError(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, auth.CallerFromUser(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerFrom returns the caller set by RequireAuthentication. Outside of it
// the zero Caller is returned, which holds no roles.
func callerFrom(r *http.Request) auth.Caller {
	caller, _ := r.Context().Value(callerKey{}).(auth.Caller)
	return caller
}
