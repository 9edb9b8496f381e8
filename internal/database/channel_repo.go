package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ry1and/flockr/internal/models"
)

type channelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &channelRepo{pool: pool}
}

func (r *channelRepo) Create(ctx context.Context, channel *models.Channel, creatorID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO channels (id, name, is_public, created_at) VALUES ($1, $2, $3, $4)`,
		channel.ID, channel.Name, channel.IsPublic, channel.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO channel_members (channel_id, user_id, is_owner, joined_at, owner_since)
		 VALUES ($1, $2, TRUE, $3, $3)`,
		channel.ID, creatorID, channel.CreatedAt,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *channelRepo) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	c := &models.Channel{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, is_public, created_at FROM channels WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.IsPublic, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *channelRepo) List(ctx context.Context) ([]models.Channel, error) {
	return r.query(ctx,
		`SELECT id, name, is_public, created_at FROM channels ORDER BY id`)
}

func (r *channelRepo) ListByMember(ctx context.Context, userID int64) ([]models.Channel, error) {
	return r.query(ctx,
		`SELECT c.id, c.name, c.is_public, c.created_at
		 FROM channels c
		 INNER JOIN channel_members cm ON cm.channel_id = c.id
		 WHERE cm.user_id = $1
		 ORDER BY c.id`, userID)
}

func (r *channelRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	return err
}

func (r *channelRepo) query(ctx context.Context, sql string, args ...any) ([]models.Channel, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var c models.Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.IsPublic, &c.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}
