package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// UpsertUser creates the user on first contact and refreshes the profile
// fields on every later one. The block flag is never touched here.
func (q *Queries) UpsertUser(ctx context.Context, ref UserRef) (User, error) {
	now := time.Now()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users(id, username, first_name, last_name, blocked, created_at)
		 VALUES(?,?,?,?,0,?)
		 ON CONFLICT(id) DO UPDATE SET
		   username   = COALESCE(excluded.username, users.username),
		   first_name = COALESCE(excluded.first_name, users.first_name),
		   last_name  = COALESCE(excluded.last_name, users.last_name)`,
		ref.ID, nullStr(ref.Username), nullStr(ref.FirstName), nullStr(ref.LastName), fmtTime(now),
	)
	if err != nil {
		return User{}, err
	}
	return q.GetUser(ctx, ref.ID)
}

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	var (
		u        User
		username sql.NullString
		first    sql.NullString
		last     sql.NullString
		created  string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, username, first_name, last_name, blocked, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &username, &first, &last, &u.Blocked, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Username = username.String
	u.FirstName = first.String
	u.LastName = last.String
	u.CreatedAt = parseTime(created)
	return u, nil
}

// SetUserBlocked flips the global block flag.
func (q *Queries) SetUserBlocked(ctx context.Context, id int64, blocked bool) error {
	res, err := q.db.ExecContext(ctx, `UPDATE users SET blocked = ? WHERE id = ?`, blocked, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
