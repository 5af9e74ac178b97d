package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

func (s *Store) CreateConversation(_ context.Context, userID, title string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := &models.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[c.ID] = c

	out := *c
	return &out, nil
}

func (s *Store) ownedLocked(id, userID string) (*models.Conversation, error) {
	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetConversation(_ context.Context, id, userID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.ownedLocked(id, userID)
	if err != nil {
		return nil, err
	}
	out := *c
	return &out, nil
}

func (s *Store) ListConversations(_ context.Context, userID string, limit, offset int) ([]models.Conversation, error) {
	limit = store.ClampLimit(limit, store.DefaultConversationLimit, store.MaxConversationLimit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Conversation, 0)
	for _, c := range s.conversations {
		if c.UserID != userID {
			continue
		}
		item := *c
		msgs := s.messages[c.ID]
		for i := len(msgs) - 1; i >= 0; i-- {
			if !msgs[i].FromUser() {
				item.LastMessage = store.Preview(msgs[i].AIResponse)
				item.AgentName = msgs[i].AgentName
				break
			}
		}
		list = append(list, item)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	return page(list, limit, offset), nil
}

func (s *Store) TouchConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return store.ErrNotFound
	}
	c.UpdatedAt = s.now()
	return nil
}

func (s *Store) UpdateTitle(_ context.Context, id, userID, title string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.ownedLocked(id, userID)
	if err != nil {
		return nil, err
	}
	c.Title = strings.TrimSpace(title)
	c.UpdatedAt = s.now()

	out := *c
	return &out, nil
}

func (s *Store) appendLocked(msg *models.Message) error {
	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return store.ErrNotFound
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	s.seq++
	msg.Seq = s.seq

	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

func (s *Store) AppendMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(msg)
}

func (s *Store) AppendTurn(_ context.Context, userMsg, agentMsg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[userMsg.ConversationID]
	if !ok || agentMsg.ConversationID != userMsg.ConversationID {
		return store.ErrNotFound
	}

	if err := s.appendLocked(userMsg); err != nil {
		return err
	}
	if err := s.appendLocked(agentMsg); err != nil {
		return err
	}

	c.UpdatedAt = s.now()
	return nil
}

func (s *Store) sortedLocked(conversationID string) []models.Message {
	msgs := append([]models.Message(nil), s.messages[conversationID]...)
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].Seq < msgs[j].Seq
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs
}

func (s *Store) ListMessages(_ context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	limit = store.ClampLimit(limit, store.DefaultMessageLimit, store.MaxMessageLimit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return page(s.sortedLocked(conversationID), limit, offset), nil
}

func (s *Store) RecentMessages(_ context.Context, conversationID string, n int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sortedLocked(conversationID)
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return msgs, nil
}

func (s *Store) DeleteConversation(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedLocked(id, userID); err != nil {
		return err
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *Store) ClearMessages(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.ownedLocked(id, userID)
	if err != nil {
		return err
	}
	delete(s.messages, id)
	c.UpdatedAt = s.now()
	return nil
}
