package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ry1and/flockr/internal/models"
)

type reactionRepo struct {
	pool *pgxpool.Pool
}

func NewReactionRepository(pool *pgxpool.Pool) ReactionRepository {
	return &reactionRepo{pool: pool}
}

func (r *reactionRepo) Add(ctx context.Context, messageID int64, reactID int, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO reactions (message_id, react_id, user_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (message_id, react_id, user_id) DO NOTHING`,
		messageID, reactID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *reactionRepo) Remove(ctx context.Context, messageID int64, reactID int, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM reactions WHERE message_id = $1 AND react_id = $2 AND user_id = $3`,
		messageID, reactID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *reactionRepo) ListByMessages(ctx context.Context, messageIDs []int64) (map[int64][]models.Reaction, error) {
	out := make(map[int64][]models.Reaction, len(messageIDs))
	if len(messageIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT message_id, react_id, user_id, created_at
		 FROM reactions
		 WHERE message_id = ANY($1)
		 ORDER BY created_at, user_id`,
		messageIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rc models.Reaction
		if err := rows.Scan(&rc.MessageID, &rc.ReactID, &rc.UserID, &rc.CreatedAt); err != nil {
			return nil, err
		}
		out[rc.MessageID] = append(out[rc.MessageID], rc)
	}
	return out, rows.Err()
}
