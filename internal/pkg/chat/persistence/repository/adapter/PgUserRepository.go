package adapter

import (
	"context"
	"errors"

	chat "go-courier/internal/pkg/chat/application/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) FindByExternalID(ctx context.Context, externalID string) (*chat.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	var u chat.User
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, external_id, email, username, image_url, created_at
		FROM chat.app_user
		WHERE external_id = $1
	`, externalID).Scan(&u.ID, &u.ExternalID, &u.Email, &u.Username, &u.ImageURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) SearchByEmail(ctx context.Context, email string, excludeExternalID string) ([]chat.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, external_id, email, username, image_url, created_at
		FROM chat.app_user
		WHERE email ILIKE '%' || $1 || '%'
		  AND external_id <> $2
		ORDER BY email ASC
	`, email, excludeExternalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []chat.User
	for rows.Next() {
		var u chat.User
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Username, &u.ImageURL, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return users, nil
}

func (r *PgUserRepository) Upsert(ctx context.Context, u chat.User) error {
	if r == nil || r.pool == nil {
		return errors.New("PgUserRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.app_user (external_id, email, username, image_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id)
		DO UPDATE SET email = EXCLUDED.email,
		              username = EXCLUDED.username,
		              image_url = EXCLUDED.image_url
	`, u.ExternalID, u.Email, u.Username, u.ImageURL)
	return err
}
