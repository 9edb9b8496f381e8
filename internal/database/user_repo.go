package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ry1and/flockr/internal/models"
)

// firstUserLockKey serialises user creation so exactly one user can observe
// an empty table.
const firstUserLockKey int64 = 0x666c6f636b72

const userColumns = `id, email, name_first, name_last, handle, password_hash,
		        is_global_owner, profile_img_url, created_at`

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.NameFirst, &u.NameLast, &u.Handle, &u.PasswordHash,
		&u.IsGlobalOwner, &u.ProfileImgURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, firstUserLockKey); err != nil {
		return err
	}

	var first bool
	if err := tx.QueryRow(ctx, `SELECT NOT EXISTS (SELECT 1 FROM users)`).Scan(&first); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, name_first, name_last, handle, password_hash,
		                    is_global_owner, profile_img_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.NameFirst, user.NameLast, user.Handle, user.PasswordHash,
		first || user.IsGlobalOwner, user.ProfileImgURL, user.CreatedAt,
	)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	user.IsGlobalOwner = first || user.IsGlobalOwner
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *userRepo) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE handle = $1`, handle))
}

func (r *userRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET email = $2, name_first = $3, name_last = $4, handle = $5,
		     password_hash = $6, profile_img_url = $7
		 WHERE id = $1`,
		user.ID, user.Email, user.NameFirst, user.NameLast, user.Handle,
		user.PasswordHash, user.ProfileImgURL,
	)
	return err
}

func (r *userRepo) SetGlobalOwner(ctx context.Context, id int64, isOwner bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET is_global_owner = $2 WHERE id = $1`, id, isOwner)
	return err
}
