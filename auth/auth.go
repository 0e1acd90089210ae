// Package auth is the identity-verification collaborator: it turns
// registration credentials into numeric user ids, keeping the player store
// in memory for the lifetime of the process.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/araneusX/battleship-gateway/domain"
)

const minPasswordLen = 4

var (
	ErrEmptyName     = errors.New("name must not be empty")
	ErrShortPassword = fmt.Errorf("password must be at least %d characters", minPasswordLen)
	ErrNameTaken     = errors.New("name taken")
)

type player struct {
	id       domain.UserID
	password string
}

// Store assigns ids sequentially. A returning player presenting the same
// name and password gets their original id back, so a user can hold several
// connections at once.
type Store struct {
	mu      sync.Mutex
	players map[string]player
	nextID  domain.UserID
}

func NewStore() *Store {
	return &Store{players: make(map[string]player), nextID: 1}
}

func (s *Store) Verify(req domain.RegRequest) (domain.UserID, error) {
	if req.Name == "" {
		return 0, ErrEmptyName
	}
	if len(req.Password) < minPasswordLen {
		return 0, ErrShortPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.players[req.Name]; ok {
		if existing.password != req.Password {
			return 0, ErrNameTaken
		}
		return existing.id, nil
	}

	id := s.nextID
	s.nextID++
	s.players[req.Name] = player{id: id, password: req.Password}
	return id, nil
}
