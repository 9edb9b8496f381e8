package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/permissions"
)

const memberColumns = `cm.channel_id, cm.user_id, cm.is_owner, cm.joined_at, cm.owner_since,
		        u.name_first, u.name_last, u.handle, u.profile_img_url`

type memberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepo{pool: pool}
}

func scanMember(row pgx.Row) (*models.ChannelMember, error) {
	m := &models.ChannelMember{}
	err := row.Scan(&m.ChannelID, &m.UserID, &m.IsOwner, &m.JoinedAt, &m.OwnerSince,
		&m.NameFirst, &m.NameLast, &m.Handle, &m.ProfileImgURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *memberRepo) Get(ctx context.Context, channelID, userID int64) (*models.ChannelMember, error) {
	return scanMember(r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+`
		 FROM channel_members cm
		 INNER JOIN users u ON u.id = cm.user_id
		 WHERE cm.channel_id = $1 AND cm.user_id = $2`, channelID, userID))
}

func (r *memberRepo) ListByChannel(ctx context.Context, channelID int64) ([]models.ChannelMember, error) {
	return listMembers(ctx, r.pool, channelID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listMembers(ctx context.Context, q querier, channelID int64) ([]models.ChannelMember, error) {
	rows, err := q.Query(ctx,
		`SELECT `+memberColumns+`
		 FROM channel_members cm
		 INNER JOIN users u ON u.id = cm.user_id
		 WHERE cm.channel_id = $1
		 ORDER BY cm.seq`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.ChannelMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (r *memberRepo) Add(ctx context.Context, channelID, userID int64, asOwner bool) (bool, error) {
	now := time.Now()
	var ownerSince *time.Time
	if asOwner {
		ownerSince = &now
	}

	// xmax = 0 only for freshly inserted rows.
	var inserted bool
	err := r.pool.QueryRow(ctx,
		`INSERT INTO channel_members (channel_id, user_id, is_owner, joined_at, owner_since)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (channel_id, user_id) DO UPDATE
		   SET is_owner = channel_members.is_owner OR EXCLUDED.is_owner,
		       owner_since = COALESCE(channel_members.owner_since, EXCLUDED.owner_since)
		 RETURNING (xmax = 0)`,
		channelID, userID, asOwner, now, ownerSince,
	).Scan(&inserted)
	return inserted, err
}

func (r *memberRepo) SetOwner(ctx context.Context, channelID, userID int64, isOwner bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE channel_members
		 SET is_owner = $3,
		     owner_since = CASE WHEN $3 THEN COALESCE(owner_since, now()) ELSE NULL END
		 WHERE channel_id = $1 AND user_id = $2`,
		channelID, userID, isOwner,
	)
	return err
}

func (r *memberRepo) Leave(ctx context.Context, channelID, userID int64) (*models.LeaveOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM channels WHERE id = $1 FOR UPDATE`, channelID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	members, err := listMembers(ctx, tx, channelID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, m := range members {
		if m.UserID == userID {
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}

	plan := permissions.PlanLeave(seats(members), userID)

	if _, err := tx.Exec(ctx,
		`DELETE FROM channel_members WHERE channel_id = $1 AND user_id = $2`, channelID, userID,
	); err != nil {
		return nil, err
	}

	if plan.DeleteChannel {
		if _, err := tx.Exec(ctx, `DELETE FROM channels WHERE id = $1`, channelID); err != nil {
			return nil, err
		}
	}
	if plan.Promote != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE channel_members SET is_owner = TRUE, owner_since = now()
			 WHERE channel_id = $1 AND user_id = $2`, channelID, *plan.Promote,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &models.LeaveOutcome{ChannelDeleted: plan.DeleteChannel, PromotedUserID: plan.Promote}, nil
}
