package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ActivePost returns the user's live (non-archived) post on a board, or
// ErrNotFound when there is none.
func (q *Queries) ActivePost(ctx context.Context, userID, boardID int64) (Post, error) {
	var (
		p        Post
		posted   string
		archived sql.NullString
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, board_id, text, posted_at, message_id, archived, archived_at
		 FROM posts WHERE user_id = ? AND board_id = ? AND archived = 0`,
		userID, boardID,
	).Scan(&p.ID, &p.UserID, &p.BoardID, &p.Text, &posted, &p.MessageID, &p.Archived, &archived)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	p.PostedAt = parseTime(posted)
	p.ArchivedAt = parseTime(archived.String)
	return p, nil
}

// ArchivePost marks a post archived at the given time. Archived posts
// never come back.
func (q *Queries) ArchivePost(ctx context.Context, postID int64, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE posts SET archived = 1, archived_at = ? WHERE id = ? AND archived = 0`,
		fmtTime(at), postID,
	)
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

// CreatePost inserts a new live post. The partial unique index rejects a
// second live post for the same (user, board) pair.
func (q *Queries) CreatePost(ctx context.Context, userID, boardID int64, text string, messageID int, at time.Time) (Post, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO posts(user_id, board_id, text, posted_at, message_id, archived)
		 VALUES(?,?,?,?,?,0)`,
		userID, boardID, text, fmtTime(at), messageID,
	)
	if err != nil {
		return Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Post{}, err
	}
	return Post{
		ID:        id,
		UserID:    userID,
		BoardID:   boardID,
		Text:      text,
		PostedAt:  at,
		MessageID: messageID,
	}, nil
}

// CountPosts returns (total, archived) post counts for a (user, board)
// pair. Used by tests and the stats view.
func (q *Queries) CountPosts(ctx context.Context, userID, boardID int64) (total, archived int, err error) {
	err = q.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(archived), 0) FROM posts WHERE user_id = ? AND board_id = ?`,
		userID, boardID,
	).Scan(&total, &archived)
	return total, archived, err
}
