// Package admin implements the moderation surface: board lifecycle,
// role grants, per-board blocks and aggregate stats. Every mutation is
// transactional and leaves an audit trail.
package admin

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog"

	"boardbot/internal/storage"
)

// Defaults are applied at board-creation time only; per-board values are
// authoritative afterwards.
type Defaults struct {
	RateLimitSeconds int
	MaxTextLength    int
}

type Service struct {
	store    *storage.Store
	defaults Defaults
	log      zerolog.Logger
}

func NewService(store *storage.Store, defaults Defaults, log zerolog.Logger) *Service {
	return &Service{store: store, defaults: defaults, log: log}
}

// CreateBoard creates an active board with the configured default rate
// limit and length cap.
func (s *Service) CreateBoard(ctx context.Context, actorID int64, title, channel string) (storage.Board, error) {
	var board storage.Board
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		board, err = q.CreateBoard(ctx, title, channel, s.defaults.RateLimitSeconds, s.defaults.MaxTextLength)
		if err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]string{"title": title, "channel": channel})
		return q.AppendAudit(ctx, storage.AuditEntry{
			ActorID:    actorID,
			Action:     storage.AuditBoardCreate,
			TargetType: "board",
			TargetID:   strconv.FormatInt(board.ID, 10),
			BoardID:    board.ID,
			MetaJSON:   string(meta),
		})
	})
	return board, err
}

// SetBoardActive archives (false) or re-activates (true) a board.
func (s *Service) SetBoardActive(ctx context.Context, actorID, boardID int64, active bool) (storage.Board, error) {
	action := storage.AuditBoardArchive
	if active {
		action = storage.AuditBoardActivate
	}
	var board storage.Board
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		board, err = q.SetBoardActive(ctx, boardID, active)
		if err != nil {
			return err
		}
		return q.AppendAudit(ctx, storage.AuditEntry{
			ActorID:    actorID,
			Action:     action,
			TargetType: "board",
			TargetID:   strconv.FormatInt(boardID, 10),
			BoardID:    boardID,
		})
	})
	return board, err
}

// SetRateLimit updates a board's posting rate limit.
func (s *Service) SetRateLimit(ctx context.Context, actorID, boardID int64, seconds int) (storage.Board, error) {
	var board storage.Board
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		board, err = q.SetBoardRateLimit(ctx, boardID, seconds)
		if err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]int{"seconds": seconds})
		return q.AppendAudit(ctx, storage.AuditEntry{
			ActorID:    actorID,
			Action:     storage.AuditBoardRate,
			TargetType: "board",
			TargetID:   strconv.FormatInt(boardID, 10),
			BoardID:    boardID,
			MetaJSON:   string(meta),
		})
	})
	return board, err
}

// GrantSuperadmin gives a user the global role. Re-granting is a no-op.
func (s *Service) GrantSuperadmin(ctx context.Context, actorID, userID int64) error {
	return s.store.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.GrantSuperadmin(ctx, userID); err != nil {
			return err
		}
		return q.AppendAudit(ctx, storage.AuditEntry{
			ActorID:    actorID,
			Action:     storage.AuditRoleGrant,
			TargetType: "user",
			TargetID:   strconv.FormatInt(userID, 10),
			MetaJSON:   roleMeta(storage.RoleSuperadmin),
		})
	})
}

// GrantBoardAdmin gives a user the admin role for one board.
func (s *Service) GrantBoardAdmin(ctx context.Context, actorID, userID, boardID int64) error {
	return s.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetBoard(ctx, boardID); err != nil {
			return err
		}
		if err := q.GrantBoardAdmin(ctx, userID, boardID); err != nil {
			return err
		}
		return q.AppendAudit(ctx, storage.AuditEntry{
			ActorID:    actorID,
			Action:     storage.AuditRoleGrant,
			TargetType: "user",
			TargetID:   strconv.FormatInt(userID, 10),
			BoardID:    boardID,
			MetaJSON:   roleMeta(storage.RoleBoardAdmin),
		})
	})
}

// RevokeSuperadmin removes the global role and reports how many rows went
// away. Revoking a role never granted removes zero, is not an error, and
// leaves no audit row.
func (s *Service) RevokeSuperadmin(ctx context.Context, actorID, userID int64) (int64, error) {
	var removed int64
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		removed, err = q.RevokeSuperadmin(ctx, userID)
		if err != nil || removed == 0 {
			return err
		}
		return q.AppendAudit(ctx, storage.AuditEntry{
			ActorID:    actorID,
			Action:     storage.AuditRoleRevoke,
			TargetType: "user",
			TargetID:   strconv.FormatInt(userID, 10),
			MetaJSON:   roleMeta(storage.RoleSuperadmin),
		})
	})
	return removed, err
}

// RevokeBoardAdmin removes the board-scoped role.
func (s *Service) RevokeBoardAdmin(ctx context.Context, actorID, userID, boardID int64) (int64, error) {
	var removed int64
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		removed, err = q.RevokeBoardAdmin(ctx, userID, boardID)
		if err != nil || removed == 0 {
			return err
		}
		return q.AppendAudit(ctx, storage.AuditEntry{
			ActorID:    actorID,
			Action:     storage.AuditRoleRevoke,
			TargetType: "user",
			TargetID:   strconv.FormatInt(userID, 10),
			BoardID:    boardID,
			MetaJSON:   roleMeta(storage.RoleBoardAdmin),
		})
	})
	return removed, err
}

// SetBlocked blocks or unblocks a user on one board.
func (s *Service) SetBlocked(ctx context.Context, actorID, userID, boardID int64, blocked bool) error {
	action := storage.AuditUserUnblock
	if blocked {
		action = storage.AuditUserBlock
	}
	return s.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetBoard(ctx, boardID); err != nil {
			return err
		}
		if _, err := q.SetMembershipBlocked(ctx, userID, boardID, blocked); err != nil {
			return err
		}
		return q.AppendAudit(ctx, storage.AuditEntry{
			ActorID:    actorID,
			Action:     action,
			TargetType: "user",
			TargetID:   strconv.FormatInt(userID, 10),
			BoardID:    boardID,
		})
	})
}

// Stats returns aggregate totals.
func (s *Service) Stats(ctx context.Context) (storage.Stats, error) {
	return s.store.Stats(ctx)
}

func roleMeta(role string) string {
	meta, _ := json.Marshal(map[string]string{"role": role})
	return string(meta)
}
