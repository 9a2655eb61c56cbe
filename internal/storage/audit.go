package storage

import (
	"context"
	"time"
)

// Audit action names shared by the engine and the admin surface.
const (
	AuditPostPublish   = "post_publish"
	AuditBoardCreate   = "board_create"
	AuditBoardArchive  = "board_archive"
	AuditBoardActivate = "board_activate"
	AuditBoardRate     = "board_rate_limit"
	AuditRoleGrant     = "role_grant"
	AuditRoleRevoke    = "role_revoke"
	AuditUserBlock     = "user_block"
	AuditUserUnblock   = "user_unblock"
)

// AppendAudit writes one audit row. The log is append-only; nothing in
// the codebase mutates or deletes entries.
func (q *Queries) AppendAudit(ctx context.Context, e AuditEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO audit_log(at, actor_id, action, target_type, target_id, board_id, meta)
		 VALUES(?,?,?,?,?,?,?)`,
		fmtTime(e.At), e.ActorID, e.Action, e.TargetType, nullStr(e.TargetID), nullID(e.BoardID), nullStr(e.MetaJSON),
	)
	return err
}

// CountAudit returns the number of audit rows for an action ("" counts
// all). Used by tests.
func (q *Queries) CountAudit(ctx context.Context, action string) (int, error) {
	var n int
	var err error
	if action == "" {
		err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&n)
	} else {
		err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log WHERE action = ?`, action).Scan(&n)
	}
	return n, err
}
