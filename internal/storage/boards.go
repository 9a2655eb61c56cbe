package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// CreateBoard inserts an active board. The slug is derived from the title
// and de-duplicated with a numeric suffix.
func (q *Queries) CreateBoard(ctx context.Context, title, channel string, rateLimitSeconds, maxTextLength int) (Board, error) {
	if rateLimitSeconds <= 0 {
		return Board{}, errors.New("rate limit must be positive")
	}
	if maxTextLength <= 0 {
		return Board{}, errors.New("max text length must be positive")
	}

	base := slugify(title)
	slug := base
	for n := 2; ; n++ {
		var exists int
		err := q.db.QueryRowContext(ctx, `SELECT 1 FROM boards WHERE slug = ?`, slug).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if err != nil {
			return Board{}, err
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO boards(slug, title, channel, active, rate_limit_seconds, max_text_length, created_at)
		 VALUES(?,?,?,1,?,?,?)`,
		slug, title, channel, rateLimitSeconds, maxTextLength, fmtTime(time.Now()),
	)
	if err != nil {
		return Board{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Board{}, err
	}
	return q.GetBoard(ctx, id)
}

func (q *Queries) GetBoard(ctx context.Context, id int64) (Board, error) {
	var (
		b       Board
		created string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, slug, title, channel, active, rate_limit_seconds, max_text_length, created_at
		 FROM boards WHERE id = ?`, id,
	).Scan(&b.ID, &b.Slug, &b.Title, &b.Channel, &b.Active, &b.RateLimitSeconds, &b.MaxTextLength, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Board{}, ErrNotFound
	}
	if err != nil {
		return Board{}, err
	}
	b.CreatedAt = parseTime(created)
	return b, nil
}

// ListBoards returns boards ordered by title. With includeArchived false
// only active boards are returned.
func (q *Queries) ListBoards(ctx context.Context, includeArchived bool) ([]Board, error) {
	query := `SELECT id, slug, title, channel, active, rate_limit_seconds, max_text_length, created_at
		FROM boards`
	if !includeArchived {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY title`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		var (
			b       Board
			created string
		)
		if err := rows.Scan(&b.ID, &b.Slug, &b.Title, &b.Channel, &b.Active, &b.RateLimitSeconds, &b.MaxTextLength, &created); err != nil {
			return nil, err
		}
		b.CreatedAt = parseTime(created)
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (q *Queries) SetBoardActive(ctx context.Context, id int64, active bool) (Board, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE boards SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return Board{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return Board{}, err
	} else if n == 0 {
		return Board{}, ErrNotFound
	}
	return q.GetBoard(ctx, id)
}

func (q *Queries) SetBoardRateLimit(ctx context.Context, id int64, seconds int) (Board, error) {
	if seconds <= 0 {
		return Board{}, errors.New("rate limit must be positive")
	}
	res, err := q.db.ExecContext(ctx, `UPDATE boards SET rate_limit_seconds = ? WHERE id = ?`, seconds, id)
	if err != nil {
		return Board{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return Board{}, err
	} else if n == 0 {
		return Board{}, ErrNotFound
	}
	return q.GetBoard(ctx, id)
}

// slugify lowercases the title and squashes anything that is not a letter
// or digit into single dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "board"
	}
	return out
}
