package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ry1and/flockr/internal/models"
)

const messageColumns = `m.id, m.channel_id, m.author_id, m.content, m.created_at, m.edited_at, m.is_pinned`

type messageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepo{pool: pool}
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	m := &models.Message{}
	err := row.Scan(&m.ID, &m.ChannelID, &m.AuthorID, &m.Content, &m.CreatedAt, &m.EditedAt, &m.IsPinned)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, channel_id, author_id, content, created_at, edited_at, is_pinned)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.ChannelID, msg.AuthorID, msg.Content, msg.CreatedAt, msg.EditedAt, msg.IsPinned,
	)
	return err
}

func (r *messageRepo) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	return scanMessage(r.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages m WHERE m.id = $1`, id))
}

func (r *messageRepo) ListByChannel(ctx context.Context, channelID int64, offset, limit int) ([]models.Message, error) {
	return r.query(ctx,
		`SELECT `+messageColumns+`
		 FROM messages m
		 WHERE m.channel_id = $1
		 ORDER BY m.created_at DESC, m.id DESC
		 OFFSET $2 LIMIT $3`,
		channelID, offset, limit,
	)
}

func (r *messageRepo) CountByChannel(ctx context.Context, channelID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE channel_id = $1`, channelID,
	).Scan(&n)
	return n, err
}

func (r *messageRepo) UpdateContent(ctx context.Context, id int64, content string, editedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET content = $2, edited_at = $3 WHERE id = $1`,
		id, content, editedAt,
	)
	return err
}

func (r *messageRepo) SetPinned(ctx context.Context, id int64, pinned bool) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE messages SET is_pinned = $2 WHERE id = $1 AND is_pinned <> $2`,
		id, pinned,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *messageRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (r *messageRepo) Search(ctx context.Context, userID int64, query string) ([]models.Message, error) {
	return r.query(ctx,
		`SELECT `+messageColumns+`
		 FROM messages m
		 INNER JOIN channel_members cm ON cm.channel_id = m.channel_id AND cm.user_id = $1
		 WHERE strpos(m.content, $2) > 0
		 ORDER BY m.id`,
		userID, query,
	)
}

func (r *messageRepo) query(ctx context.Context, sql string, args ...any) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}
