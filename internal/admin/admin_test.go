package admin

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"boardbot/internal/storage"
)

func newService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "bot.db")}, zerolog.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	svc := NewService(st, Defaults{RateLimitSeconds: 120, MaxTextLength: 300}, zerolog.Nop())
	return svc, st
}

func TestCreateBoardAppliesDefaults(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, 1, "News", "@news")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if board.RateLimitSeconds != 120 || board.MaxTextLength != 300 {
		t.Fatalf("defaults not applied: %+v", board)
	}
	if !board.Active {
		t.Fatal("new board must be active")
	}

	n, err := st.CountAudit(ctx, storage.AuditBoardCreate)
	if err != nil || n != 1 {
		t.Fatalf("CountAudit = (%d, %v), want (1, nil)", n, err)
	}
}

func TestBoardLifecycle(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	board, _ := svc.CreateBoard(ctx, 1, "News", "@news")

	archived, err := svc.SetBoardActive(ctx, 1, board.ID, false)
	if err != nil || archived.Active {
		t.Fatalf("archive failed: (%+v, %v)", archived, err)
	}
	restored, err := svc.SetBoardActive(ctx, 1, board.ID, true)
	if err != nil || !restored.Active {
		t.Fatalf("activate failed: (%+v, %v)", restored, err)
	}

	if _, err := svc.SetBoardActive(ctx, 1, 999, false); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing board, got %v", err)
	}

	for _, action := range []string{storage.AuditBoardArchive, storage.AuditBoardActivate} {
		n, err := st.CountAudit(ctx, action)
		if err != nil || n != 1 {
			t.Fatalf("CountAudit(%s) = (%d, %v), want (1, nil)", action, n, err)
		}
	}
}

func TestSetRateLimit(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	board, _ := svc.CreateBoard(ctx, 1, "News", "@news")
	updated, err := svc.SetRateLimit(ctx, 1, board.ID, 60)
	if err != nil {
		t.Fatalf("SetRateLimit: %v", err)
	}
	if updated.RateLimitSeconds != 60 {
		t.Fatalf("RateLimitSeconds = %d, want 60", updated.RateLimitSeconds)
	}
	n, _ := st.CountAudit(ctx, storage.AuditBoardRate)
	if n != 1 {
		t.Fatalf("audit rows = %d, want 1", n)
	}
}

func TestRoleGrantRevokeAudited(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	board, _ := svc.CreateBoard(ctx, 1, "News", "@news")

	if err := svc.GrantSuperadmin(ctx, 1, 50); err != nil {
		t.Fatalf("GrantSuperadmin: %v", err)
	}
	if err := svc.GrantBoardAdmin(ctx, 1, 51, board.ID); err != nil {
		t.Fatalf("GrantBoardAdmin: %v", err)
	}
	// Granting against a missing board is a persistence error, not a
	// silent grant.
	if err := svc.GrantBoardAdmin(ctx, 1, 51, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	removed, err := svc.RevokeSuperadmin(ctx, 1, 50)
	if err != nil || removed != 1 {
		t.Fatalf("RevokeSuperadmin = (%d, %v), want (1, nil)", removed, err)
	}
	// Idempotent: revoking again removes nothing and stays error-free.
	removed, err = svc.RevokeSuperadmin(ctx, 1, 50)
	if err != nil || removed != 0 {
		t.Fatalf("second RevokeSuperadmin = (%d, %v), want (0, nil)", removed, err)
	}
	// Same for a board role that was never granted.
	removed, err = svc.RevokeBoardAdmin(ctx, 1, 52, board.ID)
	if err != nil || removed != 0 {
		t.Fatalf("RevokeBoardAdmin(never granted) = (%d, %v), want (0, nil)", removed, err)
	}

	// No-op revokes leave no trail: one grant pair, one real revoke.
	grants, _ := st.CountAudit(ctx, storage.AuditRoleGrant)
	revokes, _ := st.CountAudit(ctx, storage.AuditRoleRevoke)
	if grants != 2 || revokes != 1 {
		t.Fatalf("audit grants/revokes = %d/%d, want 2/1", grants, revokes)
	}
}

func TestSetBlocked(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	board, _ := svc.CreateBoard(ctx, 1, "News", "@news")

	if err := svc.SetBlocked(ctx, 1, 70, board.ID, true); err != nil {
		t.Fatalf("SetBlocked: %v", err)
	}
	m, err := st.EnsureMembership(ctx, 70, board.ID)
	if err != nil || !m.Blocked {
		t.Fatalf("membership = (%+v, %v), want blocked", m, err)
	}

	if err := svc.SetBlocked(ctx, 1, 70, board.ID, false); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	m, _ = st.EnsureMembership(ctx, 70, board.ID)
	if m.Blocked {
		t.Fatal("expected unblocked membership")
	}

	blocks, _ := st.CountAudit(ctx, storage.AuditUserBlock)
	unblocks, _ := st.CountAudit(ctx, storage.AuditUserUnblock)
	if blocks != 1 || unblocks != 1 {
		t.Fatalf("audit block/unblock = %d/%d, want 1/1", blocks, unblocks)
	}
}

func TestStats(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateBoard(ctx, 1, "A", "@a"); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	st, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.BoardsTotal != 1 || st.BoardsActive != 1 {
		t.Fatalf("Stats = %+v, want one active board", st)
	}
}
