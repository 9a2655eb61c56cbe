package access

import (
	"context"
	"testing"

	"boardbot/internal/storage"
)

// fakeRoles is an in-memory RoleReader.
type fakeRoles struct {
	rows map[int64][]roleRow
}

type roleRow struct {
	role    string
	boardID int64
}

func (f *fakeRoles) HasRole(_ context.Context, userID int64, role string, boardID int64) (bool, error) {
	for _, r := range f.rows[userID] {
		if r.role == role && r.boardID == boardID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRoles) HasAnyRole(_ context.Context, userID int64) (bool, error) {
	return len(f.rows[userID]) > 0, nil
}

func TestBootstrapSuperadmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewResolver([]int64{100})
	roles := &fakeRoles{rows: map[int64][]roleRow{}}

	// Bootstrap ids are superadmins with zero persisted rows.
	ok, err := r.IsSuperadmin(ctx, roles, 100)
	if err != nil || !ok {
		t.Fatalf("IsSuperadmin(bootstrap) = (%v, %v), want (true, nil)", ok, err)
	}
	// ...and board admins on every board.
	for _, boardID := range []int64{1, 2, 99} {
		ok, err = r.IsBoardAdmin(ctx, roles, 100, boardID)
		if err != nil || !ok {
			t.Fatalf("IsBoardAdmin(bootstrap, %d) = (%v, %v), want (true, nil)", boardID, ok, err)
		}
	}
	ok, err = r.IsAnyAdmin(ctx, roles, 100)
	if err != nil || !ok {
		t.Fatalf("IsAnyAdmin(bootstrap) = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestPersistedRoles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewResolver(nil)
	roles := &fakeRoles{rows: map[int64][]roleRow{
		1: {{role: storage.RoleSuperadmin, boardID: 0}},
		2: {{role: storage.RoleBoardAdmin, boardID: 5}},
	}}

	tests := []struct {
		name    string
		userID  int64
		boardID int64
		super   bool
		board   bool
		any     bool
	}{
		{name: "persisted superadmin", userID: 1, boardID: 5, super: true, board: true, any: true},
		{name: "board admin on own board", userID: 2, boardID: 5, super: false, board: true, any: true},
		{name: "board admin on other board", userID: 2, boardID: 6, super: false, board: false, any: true},
		{name: "nobody", userID: 3, boardID: 5, super: false, board: false, any: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := r.IsSuperadmin(ctx, roles, tt.userID); got != tt.super {
				t.Fatalf("IsSuperadmin = %v, want %v", got, tt.super)
			}
			if got, _ := r.IsBoardAdmin(ctx, roles, tt.userID, tt.boardID); got != tt.board {
				t.Fatalf("IsBoardAdmin = %v, want %v", got, tt.board)
			}
			if got, _ := r.IsAnyAdmin(ctx, roles, tt.userID); got != tt.any {
				t.Fatalf("IsAnyAdmin = %v, want %v", got, tt.any)
			}
		})
	}
}

func TestBoardAdminZeroBoard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewResolver([]int64{100})
	roles := &fakeRoles{rows: map[int64][]roleRow{}}

	// A missing board id resolves false even for a superadmin, never an error.
	ok, err := r.IsBoardAdmin(ctx, roles, 100, 0)
	if err != nil || ok {
		t.Fatalf("IsBoardAdmin(.., 0) = (%v, %v), want (false, nil)", ok, err)
	}
}
