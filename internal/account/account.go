// Package account verifies handshake credentials. A token is either a
// registered "user:secret" pair checked against a stored bcrypt hash, or a
// guest token that mints a fresh identity.
package account

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken rejects a credential that matches no account.
var ErrInvalidToken = errors.New("account: invalid token")

// GuestPrefix marks tokens that request an anonymous identity.
const GuestPrefix = "guest:"

// Service resolves tokens to user ids. Called once per handshake.
type Service struct {
	mu sync.RWMutex
	// secretHash maps user id to the bcrypt hash of that user's secret.
	secretHash map[string][]byte
	allowGuest bool
}

// NewService builds an account service. allowGuest admits guest tokens.
func NewService(allowGuest bool) *Service {
	return &Service{
		secretHash: make(map[string][]byte),
		allowGuest: allowGuest,
	}
}

// RegisterUser stores a credential. The secret is bcrypt-hashed at rest.
func (s *Service) RegisterUser(userID, secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secretHash[userID] = hash
	return nil
}

// Verify resolves a token to a user id. Tokens are "user:secret" pairs;
// guest tokens return a fresh uuid identity when guests are allowed.
func (s *Service) Verify(token string) (string, error) {
	if strings.HasPrefix(token, GuestPrefix) {
		s.mu.RLock()
		allowed := s.allowGuest
		s.mu.RUnlock()
		if !allowed {
			return "", ErrInvalidToken
		}
		return "guest-" + uuid.NewString(), nil
	}

	userID, secret, ok := strings.Cut(token, ":")
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	s.mu.RLock()
	hash, exists := s.secretHash[userID]
	s.mu.RUnlock()
	if !exists {
		return "", ErrInvalidToken
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// Exists reports whether the user id is registered. Guest identities are
// ephemeral and never registered.
func (s *Service) Exists(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.secretHash[userID]
	return ok
}
