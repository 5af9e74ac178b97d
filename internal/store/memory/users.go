package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

func (s *Store) conflictLocked(user *models.User) error {
	name := strings.ToLower(strings.TrimSpace(user.Username))
	email := strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.ID == user.ID {
			continue
		}
		if strings.ToLower(u.Username) == name {
			return store.ErrUsernameTaken
		}
		if email != "" && strings.ToLower(u.Email) == email {
			return store.ErrEmailTaken
		}
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conflictLocked(user); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	u := *user
	s.users[u.ID] = &u
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *Store) FindUser(_ context.Context, identifier string) (*models.User, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.ToLower(u.Username) == key || (u.Email != "" && strings.ToLower(u.Email) == key) {
			out := *u
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	if err := s.conflictLocked(user); err != nil {
		return err
	}
	user.UpdatedAt = s.now()
	u := *user
	s.users[u.ID] = &u
	return nil
}

func (s *Store) GetAPIKeys(_ context.Context, userID string) (*models.APIKeys, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.apiKeys[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *k
	return &out, nil
}

func (s *Store) SaveAPIKeys(_ context.Context, keys *models.APIKeys) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys.UpdatedAt = s.now()
	k := *keys
	s.apiKeys[k.UserID] = &k
	return nil
}
