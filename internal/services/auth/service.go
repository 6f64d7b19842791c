package auth

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Operator login against the closed operator set. Sessions are bearer
// tokens held in memory; restarting the server logs everyone out, which is
// fine for a tool whose whole user base is a handful of call operators.

var ErrInvalidCredentials = errString("invalid credentials")

type errString string

func (e errString) Error() string { return string(e) }

type Service struct {
	password  string
	operators map[string]bool

	mu       sync.RWMutex
	sessions map[string]string // token -> operator
}

func New(operators []string, password string) *Service {
	known := make(map[string]bool, len(operators))
	for _, op := range operators {
		known[strings.ToLower(strings.TrimSpace(op))] = true
	}
	return &Service{
		password:  password,
		operators: known,
		sessions:  make(map[string]string),
	}
}

// Login checks the username against the operator set and the shared
// password, and mints a session token. Usernames are lowercased and
// trimmed before matching.
func (s *Service) Login(username, password string) (string, string, error) {
	operator := strings.ToLower(strings.TrimSpace(username))
	if !s.operators[operator] || password != s.password {
		return "", "", ErrInvalidCredentials
	}
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = operator
	s.mu.Unlock()
	return token, operator, nil
}

// OperatorForToken resolves a bearer token to its operator.
func (s *Service) OperatorForToken(token string) (string, bool) {
	s.mu.RLock()
	operator, ok := s.sessions[token]
	s.mu.RUnlock()
	return operator, ok
}

// Operators returns the known operator names, for the stats filter set.
func (s *Service) Operators() []string {
	out := make([]string, 0, len(s.operators))
	for op := range s.operators {
		out = append(out, op)
	}
	return out
}
