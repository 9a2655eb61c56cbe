package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "bot.db")}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestUpsertUserRefreshesProfile(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	u, err := st.UpsertUser(ctx, UserRef{ID: 7, Username: "alice"})
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if u.Username != "alice" || u.Blocked {
		t.Fatalf("unexpected user: %+v", u)
	}

	// Empty fields must not wipe stored values.
	u, err = st.UpsertUser(ctx, UserRef{ID: 7, FirstName: "Alice"})
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if u.Username != "alice" || u.FirstName != "Alice" {
		t.Fatalf("profile not merged: %+v", u)
	}
}

func TestSetUserBlocked(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.SetUserBlocked(ctx, 1, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}

	if _, err := st.UpsertUser(ctx, UserRef{ID: 1}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := st.SetUserBlocked(ctx, 1, true); err != nil {
		t.Fatalf("SetUserBlocked: %v", err)
	}
	u, err := st.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !u.Blocked {
		t.Fatal("expected user to be blocked")
	}
}

func TestCreateBoardSlugDedup(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		title string
		slug  string
	}{
		{title: "General Talk", slug: "general-talk"},
		{title: "General Talk", slug: "general-talk-2"},
		{title: "General  Talk!", slug: "general-talk-3"},
		{title: "!!!", slug: "board"},
	}
	for _, tt := range tests {
		b, err := st.CreateBoard(ctx, tt.title, "@chan", 120, 300)
		if err != nil {
			t.Fatalf("CreateBoard(%q): %v", tt.title, err)
		}
		if b.Slug != tt.slug {
			t.Fatalf("slug = %q, want %q", b.Slug, tt.slug)
		}
		if !b.Active {
			t.Fatal("new board must be active")
		}
	}
}

func TestCreateBoardRejectsBadLimits(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.CreateBoard(ctx, "a", "@c", 0, 300); err == nil {
		t.Fatal("expected error for zero rate limit")
	}
	if _, err := st.CreateBoard(ctx, "a", "@c", 120, 0); err == nil {
		t.Fatal("expected error for zero max length")
	}
}

func TestListBoardsFiltersArchived(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	a, _ := st.CreateBoard(ctx, "Alpha", "@a", 120, 300)
	if _, err := st.CreateBoard(ctx, "Beta", "@b", 120, 300); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if _, err := st.SetBoardActive(ctx, a.ID, false); err != nil {
		t.Fatalf("SetBoardActive: %v", err)
	}

	all, err := st.ListBoards(ctx, true)
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	active, err := st.ListBoards(ctx, false)
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(all) != 2 || len(active) != 1 {
		t.Fatalf("got %d total / %d active, want 2/1", len(all), len(active))
	}
	if active[0].Title != "Beta" {
		t.Fatalf("active board = %q, want Beta", active[0].Title)
	}
}

func TestSelectionOverwrite(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.GetSelection(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	st.mustUser(t, 5)
	b1, _ := st.CreateBoard(ctx, "One", "@one", 120, 300)
	b2, _ := st.CreateBoard(ctx, "Two", "@two", 120, 300)

	if err := st.SetSelection(ctx, 5, b1.ID); err != nil {
		t.Fatalf("SetSelection: %v", err)
	}
	if err := st.SetSelection(ctx, 5, b2.ID); err != nil {
		t.Fatalf("SetSelection: %v", err)
	}
	sel, err := st.GetSelection(ctx, 5)
	if err != nil {
		t.Fatalf("GetSelection: %v", err)
	}
	if sel.BoardID != b2.ID {
		t.Fatalf("selection = %d, want %d", sel.BoardID, b2.ID)
	}
}

func TestEnsureMembershipIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	st.mustUser(t, 9)
	b, _ := st.CreateBoard(ctx, "M", "@m", 120, 300)

	m1, err := st.EnsureMembership(ctx, 9, b.ID)
	if err != nil {
		t.Fatalf("EnsureMembership: %v", err)
	}
	if m1.Blocked {
		t.Fatal("fresh membership must be unblocked")
	}
	m2, err := st.EnsureMembership(ctx, 9, b.ID)
	if err != nil {
		t.Fatalf("EnsureMembership: %v", err)
	}
	if m1.ID != m2.ID {
		t.Fatalf("membership duplicated: %d vs %d", m1.ID, m2.ID)
	}

	if _, err := st.SetMembershipBlocked(ctx, 9, b.ID, true); err != nil {
		t.Fatalf("SetMembershipBlocked: %v", err)
	}
	m3, _ := st.EnsureMembership(ctx, 9, b.ID)
	if !m3.Blocked {
		t.Fatal("block flag lost")
	}
}

func TestActivePostLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	st.mustUser(t, 3)
	b, _ := st.CreateBoard(ctx, "P", "@p", 120, 300)

	if _, err := st.ActivePost(ctx, 3, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p1, err := st.CreatePost(ctx, 3, b.ID, "first", 100, now)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	// The partial unique index rejects a second live post for the pair.
	if _, err := st.CreatePost(ctx, 3, b.ID, "dup", 101, now); err == nil {
		t.Fatal("expected constraint violation for second active post")
	}

	if err := st.ArchivePost(ctx, p1.ID, now.Add(time.Minute)); err != nil {
		t.Fatalf("ArchivePost: %v", err)
	}
	// Archiving twice finds nothing live.
	if err := st.ArchivePost(ctx, p1.ID, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on re-archive, got %v", err)
	}

	if _, err := st.CreatePost(ctx, 3, b.ID, "second", 102, now.Add(time.Minute)); err != nil {
		t.Fatalf("CreatePost after archive: %v", err)
	}
	total, archived, err := st.CountPosts(ctx, 3, b.ID)
	if err != nil {
		t.Fatalf("CountPosts: %v", err)
	}
	if total != 2 || archived != 1 {
		t.Fatalf("got %d total / %d archived, want 2/1", total, archived)
	}
}

func TestRoleGrantRevoke(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	st.mustUser(t, 11)
	b, _ := st.CreateBoard(ctx, "R", "@r", 120, 300)

	// Revoking before any grant removes nothing and is not an error.
	n, err := st.RevokeSuperadmin(ctx, 11)
	if err != nil || n != 0 {
		t.Fatalf("RevokeSuperadmin = (%d, %v), want (0, nil)", n, err)
	}

	if err := st.GrantSuperadmin(ctx, 11); err != nil {
		t.Fatalf("GrantSuperadmin: %v", err)
	}
	// Double grant is a no-op.
	if err := st.GrantSuperadmin(ctx, 11); err != nil {
		t.Fatalf("GrantSuperadmin twice: %v", err)
	}
	held, err := st.HasRole(ctx, 11, RoleSuperadmin, 0)
	if err != nil || !held {
		t.Fatalf("HasRole = (%v, %v), want (true, nil)", held, err)
	}

	if err := st.GrantBoardAdmin(ctx, 11, b.ID); err != nil {
		t.Fatalf("GrantBoardAdmin: %v", err)
	}
	any, err := st.HasAnyRole(ctx, 11)
	if err != nil || !any {
		t.Fatalf("HasAnyRole = (%v, %v), want (true, nil)", any, err)
	}

	n, err = st.RevokeSuperadmin(ctx, 11)
	if err != nil || n != 1 {
		t.Fatalf("RevokeSuperadmin = (%d, %v), want (1, nil)", n, err)
	}
	n, err = st.RevokeBoardAdmin(ctx, 11, b.ID)
	if err != nil || n != 1 {
		t.Fatalf("RevokeBoardAdmin = (%d, %v), want (1, nil)", n, err)
	}
	any, _ = st.HasAnyRole(ctx, 11)
	if any {
		t.Fatal("roles should all be revoked")
	}
}

func TestWithTxRollsBack(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := st.WithTx(ctx, func(q *Queries) error {
		if _, err := q.UpsertUser(ctx, UserRef{ID: 42}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}
	if _, err := st.GetUser(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
}

func TestStatsAndAudit(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	st.mustUser(t, 1)
	st.mustUser(t, 2)
	b, _ := st.CreateBoard(ctx, "S", "@s", 120, 300)
	arch, _ := st.CreateBoard(ctx, "T", "@t", 120, 300)
	if _, err := st.SetBoardActive(ctx, arch.ID, false); err != nil {
		t.Fatalf("SetBoardActive: %v", err)
	}

	now := time.Now()
	p, _ := st.CreatePost(ctx, 1, b.ID, "x", 1, now)
	_ = st.ArchivePost(ctx, p.ID, now)
	if _, err := st.CreatePost(ctx, 1, b.ID, "y", 2, now); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := Stats{Users: 2, BoardsTotal: 2, BoardsActive: 1, PostsTotal: 2, PostsActive: 1}
	if stats != want {
		t.Fatalf("Stats = %+v, want %+v", stats, want)
	}

	if err := st.AppendAudit(ctx, AuditEntry{ActorID: 1, Action: AuditPostPublish, TargetType: "post"}); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}
	n, err := st.CountAudit(ctx, AuditPostPublish)
	if err != nil || n != 1 {
		t.Fatalf("CountAudit = (%d, %v), want (1, nil)", n, err)
	}
}

func (s *Store) mustUser(t *testing.T, id int64) {
	t.Helper()
	if _, err := s.UpsertUser(context.Background(), UserRef{ID: id}); err != nil {
		t.Fatalf("UpsertUser(%d): %v", id, err)
	}
}
