package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("storage: not found")

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means driver default
}

// User is a platform account observed by the bot. Rows are upserted on
// every interaction and never deleted.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Blocked   bool // global block, independent of per-board memberships
	CreatedAt time.Time
}

// UserRef is the identity payload carried by an inbound update.
type UserRef struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Board is a posting destination bound to one external channel.
// Boards are archived (active=false) rather than deleted.
type Board struct {
	ID               int64
	Slug             string
	Title            string
	Channel          string
	Active           bool
	RateLimitSeconds int
	MaxTextLength    int
	CreatedAt        time.Time
}

// Selection is a user's currently chosen board (at most one per user).
type Selection struct {
	UserID    int64
	BoardID   int64
	UpdatedAt time.Time
}

// Membership tracks per-board moderation state for a user.
type Membership struct {
	ID        int64
	UserID    int64
	BoardID   int64
	Blocked   bool
	CreatedAt time.Time
}

// Post is one published message. At most one non-archived post exists
// per (user, board) pair.
type Post struct {
	ID         int64
	UserID     int64
	BoardID    int64
	Text       string
	PostedAt   time.Time
	MessageID  int
	Archived   bool
	ArchivedAt time.Time // zero unless archived
}

// AuditEntry records an actor action. Append-only.
type AuditEntry struct {
	At         time.Time
	ActorID    int64
	Action     string
	TargetType string
	TargetID   string // optional
	BoardID    int64  // optional; 0 means no board scope
	MetaJSON   string // optional
}

// Stats is an aggregate snapshot used by /stats and the periodic reporter.
type Stats struct {
	Users        int
	BoardsTotal  int
	BoardsActive int
	PostsTotal   int
	PostsActive  int
}
