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

var _ store.UserStore = (*Postgres)(nil)

const userColumns = `id, username, email, full_name, password_hash, created_at, updated_at`

func mapUserConflict(err error) error {
	if !isUniqueViolation(err) {
		return err
	}
	_, constraint := pgErrorCode(err)
	if strings.Contains(constraint, "email") {
		return store.ErrEmailTaken
	}
	return store.ErrUsernameTaken
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	const q = `INSERT INTO users (id, username, email, full_name, password_hash) VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`
	err := p.Pool.QueryRow(ctx, q, user.ID, user.Username, user.Email, user.FullName, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if conflict := mapUserConflict(err); conflict != err {
			return conflict
		}
		return fmt.Errorf("postgres: create user: %w", err)
	}
	return nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(p.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}
	return u, err
}

func (p *Postgres) FindUser(ctx context.Context, identifier string) (*models.User, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	q := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = $1 OR (email <> '' AND LOWER(email) = $1) LIMIT 1`
	u, err := scanUser(p.Pool.QueryRow(ctx, q, key))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("postgres: find user: %w", err)
	}
	return u, err
}

func (p *Postgres) UpdateUser(ctx context.Context, user *models.User) error {
	const q = `UPDATE users SET username = $2, email = $3, full_name = $4, password_hash = $5, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	err := p.Pool.QueryRow(ctx, q, user.ID, user.Username, user.Email, user.FullName, user.PasswordHash).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		if conflict := mapUserConflict(err); conflict != err {
			return conflict
		}
		return fmt.Errorf("postgres: update user: %w", err)
	}
	return nil
}

func (p *Postgres) GetAPIKeys(ctx context.Context, userID string) (*models.APIKeys, error) {
	var k models.APIKeys
	const q = `SELECT user_id, google_api_key, alpha_vantage_key, rapidapi_key, updated_at FROM user_api_keys WHERE user_id = $1`
	if err := p.Pool.QueryRow(ctx, q, userID).Scan(&k.UserID, &k.GoogleAPIKey, &k.AlphaVantageKey, &k.RapidAPIKey, &k.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get api keys: %w", err)
	}
	return &k, nil
}

func (p *Postgres) SaveAPIKeys(ctx context.Context, keys *models.APIKeys) error {
	const q = `INSERT INTO user_api_keys (user_id, google_api_key, alpha_vantage_key, rapidapi_key, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			google_api_key = EXCLUDED.google_api_key,
			alpha_vantage_key = EXCLUDED.alpha_vantage_key,
			rapidapi_key = EXCLUDED.rapidapi_key,
			updated_at = NOW()
		RETURNING updated_at`
	if err := p.Pool.QueryRow(ctx, q, keys.UserID, keys.GoogleAPIKey, keys.AlphaVantageKey, keys.RapidAPIKey).Scan(&keys.UpdatedAt); err != nil {
		return fmt.Errorf("postgres: save api keys: %w", err)
	}
	return nil
}
