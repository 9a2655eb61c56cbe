package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SetSelection records the user's chosen board, overwriting any previous
// choice.
func (q *Queries) SetSelection(ctx context.Context, userID, boardID int64) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO selections(user_id, board_id, updated_at) VALUES(?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET board_id = excluded.board_id, updated_at = excluded.updated_at`,
		userID, boardID, fmtTime(time.Now()),
	)
	return err
}

func (q *Queries) GetSelection(ctx context.Context, userID int64) (Selection, error) {
	var (
		sel     Selection
		updated string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT user_id, board_id, updated_at FROM selections WHERE user_id = ?`, userID,
	).Scan(&sel.UserID, &sel.BoardID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Selection{}, ErrNotFound
	}
	if err != nil {
		return Selection{}, err
	}
	sel.UpdatedAt = parseTime(updated)
	return sel, nil
}

// EnsureMembership returns the (user, board) membership, creating an
// unblocked one on first access.
func (q *Queries) EnsureMembership(ctx context.Context, userID, boardID int64) (Membership, error) {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO memberships(user_id, board_id, blocked, created_at) VALUES(?,?,0,?)
		 ON CONFLICT(user_id, board_id) DO NOTHING`,
		userID, boardID, fmtTime(time.Now()),
	)
	if err != nil {
		return Membership{}, err
	}
	return q.getMembership(ctx, userID, boardID)
}

// SetMembershipBlocked flips the per-board block flag, creating the
// membership if needed.
func (q *Queries) SetMembershipBlocked(ctx context.Context, userID, boardID int64, blocked bool) (Membership, error) {
	if _, err := q.EnsureMembership(ctx, userID, boardID); err != nil {
		return Membership{}, err
	}
	_, err := q.db.ExecContext(ctx,
		`UPDATE memberships SET blocked = ? WHERE user_id = ? AND board_id = ?`,
		blocked, userID, boardID,
	)
	if err != nil {
		return Membership{}, err
	}
	return q.getMembership(ctx, userID, boardID)
}

func (q *Queries) getMembership(ctx context.Context, userID, boardID int64) (Membership, error) {
	var (
		m       Membership
		created string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, board_id, blocked, created_at FROM memberships WHERE user_id = ? AND board_id = ?`,
		userID, boardID,
	).Scan(&m.ID, &m.UserID, &m.BoardID, &m.Blocked, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Membership{}, ErrNotFound
	}
	if err != nil {
		return Membership{}, err
	}
	m.CreatedAt = parseTime(created)
	return m, nil
}
