package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"commerce-service/internal/domain"
	"commerce-service/internal/store"
)

// Authenticator resolves the user behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*domain.User, error)
}

// BasicAuthenticator checks HTTP Basic credentials (email and password)
// against bcrypt hashes held by the user store.
type BasicAuthenticator struct {
	users store.UserStorer
}

func NewBasicAuthenticator(users store.UserStorer) *BasicAuthenticator {
	return &BasicAuthenticator{users: users}
}

func (a *BasicAuthenticator) Authenticate(r *http.Request) (*domain.User, error) {
	email, password, ok := r.BasicAuth()
	if !ok || email == "" {
		return nil, ErrUnauthenticated
	}

	user, err := a.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("auth: failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			log.Printf("WARN: Stored password hash for user %d is unusable: %v", user.ID, err)
		}
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// HashPassword hashes a plain password for storage.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hashed), nil
}
