package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Role names persisted in admin_roles.
const (
	RoleSuperadmin = "superadmin"
	RoleBoardAdmin = "board_admin"
)

// HasRole reports whether a persisted role row exists for the user.
// boardID 0 matches the global scope (board_id IS NULL).
func (q *Queries) HasRole(ctx context.Context, userID int64, role string, boardID int64) (bool, error) {
	var one int
	var err error
	if boardID == 0 {
		err = q.db.QueryRowContext(ctx,
			`SELECT 1 FROM admin_roles WHERE user_id = ? AND role = ? AND board_id IS NULL`,
			userID, role,
		).Scan(&one)
	} else {
		err = q.db.QueryRowContext(ctx,
			`SELECT 1 FROM admin_roles WHERE user_id = ? AND role = ? AND board_id = ?`,
			userID, role, boardID,
		).Scan(&one)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HasAnyRole reports whether the user holds any persisted role at all.
func (q *Queries) HasAnyRole(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx,
		`SELECT 1 FROM admin_roles WHERE user_id = ? LIMIT 1`, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GrantSuperadmin grants the global role. Granting an already held role is
// a no-op.
func (q *Queries) GrantSuperadmin(ctx context.Context, userID int64) error {
	return q.grantRole(ctx, userID, RoleSuperadmin, 0)
}

// GrantBoardAdmin grants the board-scoped role.
func (q *Queries) GrantBoardAdmin(ctx context.Context, userID, boardID int64) error {
	if boardID == 0 {
		return errors.New("board id is required")
	}
	return q.grantRole(ctx, userID, RoleBoardAdmin, boardID)
}

func (q *Queries) grantRole(ctx context.Context, userID int64, role string, boardID int64) error {
	held, err := q.HasRole(ctx, userID, role, boardID)
	if err != nil {
		return err
	}
	if held {
		return nil
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO admin_roles(user_id, board_id, role, created_at) VALUES(?,?,?,?)`,
		userID, nullID(boardID), role, fmtTime(time.Now()),
	)
	return err
}

// RevokeSuperadmin removes the global role and reports how many rows were
// removed (0 when none existed; never an error).
func (q *Queries) RevokeSuperadmin(ctx context.Context, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM admin_roles WHERE user_id = ? AND role = ? AND board_id IS NULL`,
		userID, RoleSuperadmin,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RevokeBoardAdmin removes the board-scoped role. boardID 0 removes
// nothing.
func (q *Queries) RevokeBoardAdmin(ctx context.Context, userID, boardID int64) (int64, error) {
	if boardID == 0 {
		return 0, nil
	}
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM admin_roles WHERE user_id = ? AND role = ? AND board_id = ?`,
		userID, RoleBoardAdmin, boardID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
