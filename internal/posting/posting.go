// Package posting holds the decision engine behind anonymous submissions:
// it accepts or rejects a text for the user's selected board and, on
// acceptance, replaces the user's previous channel post with the new one.
package posting

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"boardbot/internal/access"
	"boardbot/internal/storage"
)

// Transport delivers messages to an external channel.
type Transport interface {
	// Send publishes text to the channel and returns the platform
	// message id needed to delete it later.
	Send(ctx context.Context, channel, text string) (int, error)
	// Delete removes a previously sent message. Best-effort from the
	// engine's point of view.
	Delete(ctx context.Context, channel string, messageID int) error
}

// Status tags the outcome of a submission. The set is closed; callers
// switch over it exhaustively.
type Status int

const (
	StatusSuccess Status = iota
	StatusNoBoardSelected
	StatusBoardInactive
	StatusBlocked
	StatusTooLong
	StatusTooOften
	StatusPublishError
)

// Result is the engine's answer to one submission. Only the fields
// relevant to the status are set.
type Result struct {
	Status           Status
	BoardTitle       string
	MaxTextLength    int // set for StatusTooLong
	RateLimitSeconds int // set for StatusTooOften
}

// Identity is the submitting user as seen on the wire.
type Identity struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Engine runs the submission pipeline. Policy rejections come back as
// Result values; only persistence faults surface as errors.
type Engine struct {
	store     *storage.Store
	transport Transport
	access    *access.Resolver
	log       zerolog.Logger

	now func() time.Time

	cleanupTimeout time.Duration
	cleanupWG      sync.WaitGroup
}

func NewEngine(store *storage.Store, transport Transport, resolver *access.Resolver, log zerolog.Logger) *Engine {
	return &Engine{
		store:          store,
		transport:      transport,
		access:         resolver,
		log:            log,
		now:            time.Now,
		cleanupTimeout: 10 * time.Second,
	}
}

// Submit runs the pipeline for one text submission. Checks run in a fixed
// order and the first failing one wins:
//
//	selection -> board active -> blocks -> length -> rate limit -> publish
//
// Steps up to and including the post/audit writes share one transaction.
// Deleting the replaced channel message happens after commit and never
// affects the returned result.
func (e *Engine) Submit(ctx context.Context, from Identity, text string) (Result, error) {
	var (
		res         Result
		prevMsgID   int
		prevChannel string
	)

	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		user, err := q.UpsertUser(ctx, storage.UserRef{
			ID:        from.ID,
			Username:  from.Username,
			FirstName: from.FirstName,
			LastName:  from.LastName,
		})
		if err != nil {
			return err
		}

		sel, err := q.GetSelection(ctx, user.ID)
		if errors.Is(err, storage.ErrNotFound) {
			res = Result{Status: StatusNoBoardSelected}
			return nil
		}
		if err != nil {
			return err
		}

		board, err := q.GetBoard(ctx, sel.BoardID)
		if errors.Is(err, storage.ErrNotFound) {
			// Selection points at a board row that no longer exists;
			// treat it like no selection at all.
			res = Result{Status: StatusNoBoardSelected}
			return nil
		}
		if err != nil {
			return err
		}
		if !board.Active {
			res = Result{Status: StatusBoardInactive, BoardTitle: board.Title}
			return nil
		}

		membership, err := q.EnsureMembership(ctx, user.ID, board.ID)
		if err != nil {
			return err
		}
		if user.Blocked || membership.Blocked {
			res = Result{Status: StatusBlocked, BoardTitle: board.Title}
			return nil
		}

		if utf8.RuneCountInString(text) > board.MaxTextLength {
			res = Result{Status: StatusTooLong, BoardTitle: board.Title, MaxTextLength: board.MaxTextLength}
			return nil
		}

		active, err := q.ActivePost(ctx, user.ID, board.ID)
		hasActive := err == nil
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		// Board admins may replace their post at any pace.
		admin, err := e.access.IsBoardAdmin(ctx, q, user.ID, board.ID)
		if err != nil {
			return err
		}
		if hasActive && !admin {
			if e.now().Sub(active.PostedAt) < time.Duration(board.RateLimitSeconds)*time.Second {
				res = Result{Status: StatusTooOften, BoardTitle: board.Title, RateLimitSeconds: board.RateLimitSeconds}
				return nil
			}
		}

		msgID, err := e.transport.Send(ctx, board.Channel, text)
		if err != nil {
			e.log.Error().Err(err).
				Int64("user_id", user.ID).
				Int64("board_id", board.ID).
				Msg("channel publish failed")
			res = Result{Status: StatusPublishError, BoardTitle: board.Title}
			return nil
		}

		now := e.now()
		if hasActive {
			if err := q.ArchivePost(ctx, active.ID, now); err != nil {
				return err
			}
			prevMsgID = active.MessageID
			prevChannel = board.Channel
		}

		post, err := q.CreatePost(ctx, user.ID, board.ID, text, msgID, now)
		if err != nil {
			return err
		}

		if err := q.AppendAudit(ctx, storage.AuditEntry{
			At:         now,
			ActorID:    user.ID,
			Action:     storage.AuditPostPublish,
			TargetType: "post",
			TargetID:   strconv.FormatInt(post.ID, 10),
			BoardID:    board.ID,
		}); err != nil {
			return err
		}

		res = Result{Status: StatusSuccess, BoardTitle: board.Title}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Status != StatusSuccess {
		e.log.Debug().
			Int64("user_id", from.ID).
			Int("status", int(res.Status)).
			Msg("submission rejected")
	}
	if res.Status == StatusSuccess && prevMsgID != 0 {
		e.deleteReplaced(prevChannel, prevMsgID)
	}
	return res, nil
}

// deleteReplaced removes the message the new post superseded. It runs
// detached from the caller's context: the state change is already
// committed and a failure here only leaves a stale message behind.
func (e *Engine) deleteReplaced(channel string, messageID int) {
	e.cleanupWG.Add(1)
	go func() {
		defer e.cleanupWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.cleanupTimeout)
		defer cancel()
		if err := e.transport.Delete(ctx, channel, messageID); err != nil {
			e.log.Warn().Err(err).
				Str("channel", channel).
				Int("message_id", messageID).
				Msg("failed to delete replaced channel post")
		}
	}()
}

// Wait blocks until pending replaced-message deletions finish. Used on
// shutdown and in tests.
func (e *Engine) Wait() {
	e.cleanupWG.Wait()
}
