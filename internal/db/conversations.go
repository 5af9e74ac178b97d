package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

var _ store.ConversationStore = (*Postgres)(nil)

const messageColumns = `id, seq, conversation_id, user_id, COALESCE(user_message, ''), COALESCE(ai_response, ''),
	COALESCE(agent_name, ''), context, created_at`

func (p *Postgres) CreateConversation(ctx context.Context, userID, title string) (*models.Conversation, error) {
	c := &models.Conversation{ID: uuid.NewString(), UserID: userID, Title: title}

	const q = `INSERT INTO conversations (id, user_id, title) VALUES ($1, $2, $3) RETURNING created_at, updated_at`
	if err := p.Pool.QueryRow(ctx, q, c.ID, c.UserID, c.Title).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("postgres: create conversation: %w", err)
	}
	return c, nil
}

func (p *Postgres) GetConversation(ctx context.Context, id, userID string) (*models.Conversation, error) {
	var c models.Conversation
	const q = `SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = $1 AND user_id = $2`
	if err := p.Pool.QueryRow(ctx, q, id, userID).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get conversation: %w", err)
	}
	return &c, nil
}

func (p *Postgres) ListConversations(ctx context.Context, userID string, limit, offset int) ([]models.Conversation, error) {
	limit = store.ClampLimit(limit, store.DefaultConversationLimit, store.MaxConversationLimit)
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT c.id, c.user_id, c.title, c.created_at, c.updated_at,
		COALESCE(m.ai_response, ''), COALESCE(m.agent_name, '')
	FROM conversations c
	LEFT JOIN LATERAL (
		SELECT ai_response, agent_name FROM chat_messages
		WHERE conversation_id = c.id AND COALESCE(ai_response, '') <> ''
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	) m ON TRUE
	WHERE c.user_id = $1
	ORDER BY c.updated_at DESC, c.created_at DESC
	LIMIT $2 OFFSET $3`

	rows, err := p.Pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list conversations: %w", err)
	}
	defer rows.Close()

	list := make([]models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.LastMessage, &c.AgentName); err != nil {
			return nil, fmt.Errorf("postgres: scan conversation: %w", err)
		}
		c.LastMessage = store.Preview(c.LastMessage)
		list = append(list, c)
	}

	return list, rows.Err()
}

func (p *Postgres) TouchConversation(ctx context.Context, id string) error {
	tag, err := p.Pool.Exec(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: touch conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (p *Postgres) UpdateTitle(ctx context.Context, id, userID, title string) (*models.Conversation, error) {
	var c models.Conversation
	const q = `UPDATE conversations SET title = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, created_at, updated_at`
	if err := p.Pool.QueryRow(ctx, q, id, userID, strings.TrimSpace(title)).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: update title: %w", err)
	}
	return &c, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertMessage(ctx context.Context, q queryRower, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	var contextJSON []byte
	if len(msg.Context) > 0 {
		contextJSON = []byte(msg.Context)
	}

	const stmt = `INSERT INTO chat_messages (id, conversation_id, user_id, user_message, ai_response, agent_name, context)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)
		RETURNING seq, created_at`

	err := q.QueryRow(ctx, stmt, msg.ID, msg.ConversationID, msg.UserID, msg.UserMessage, msg.AIResponse, msg.AgentName, contextJSON).
		Scan(&msg.Seq, &msg.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return fmt.Errorf("postgres: insert message: %w", err)
	}
	return nil
}

func (p *Postgres) AppendMessage(ctx context.Context, msg *models.Message) error {
	return insertMessage(ctx, p.Pool, msg)
}

func (p *Postgres) AppendTurn(ctx context.Context, userMsg, agentMsg *models.Message) error {
	return pgx.BeginFunc(ctx, p.Pool, func(tx pgx.Tx) error {
		if err := insertMessage(ctx, tx, userMsg); err != nil {
			return err
		}
		if err := insertMessage(ctx, tx, agentMsg); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, userMsg.ConversationID)
		if err != nil {
			return fmt.Errorf("postgres: touch conversation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func scanMessages(rows pgx.Rows) ([]models.Message, error) {
	defer rows.Close()

	list := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		var contextJSON []byte
		if err := rows.Scan(&m.ID, &m.Seq, &m.ConversationID, &m.UserID, &m.UserMessage, &m.AIResponse, &m.AgentName, &contextJSON, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan message: %w", err)
		}
		if len(contextJSON) > 0 {
			m.Context = contextJSON
		}
		list = append(list, m)
	}

	return list, rows.Err()
}

func (p *Postgres) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	limit = store.ClampLimit(limit, store.DefaultMessageLimit, store.MaxMessageLimit)
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + messageColumns + ` FROM chat_messages WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC LIMIT $2 OFFSET $3`

	rows, err := p.Pool.Query(ctx, q, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list messages: %w", err)
	}
	return scanMessages(rows)
}

func (p *Postgres) RecentMessages(ctx context.Context, conversationID string, n int) ([]models.Message, error) {
	if n <= 0 {
		n = store.HistoryWindow
	}

	q := `SELECT ` + messageColumns + ` FROM (
		SELECT * FROM chat_messages WHERE conversation_id = $1
		ORDER BY created_at DESC, seq DESC LIMIT $2
	) recent ORDER BY created_at ASC, seq ASC`

	rows, err := p.Pool.Query(ctx, q, conversationID, n)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent messages: %w", err)
	}
	return scanMessages(rows)
}

func (p *Postgres) DeleteConversation(ctx context.Context, id, userID string) error {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("postgres: delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (p *Postgres) ClearMessages(ctx context.Context, id, userID string) error {
	return pgx.BeginFunc(ctx, p.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("postgres: touch conversation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM chat_messages WHERE conversation_id = $1`, id); err != nil {
			return fmt.Errorf("postgres: clear messages: %w", err)
		}
		return nil
	})
}
