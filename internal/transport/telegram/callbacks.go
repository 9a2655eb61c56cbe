package telegram

import (
	"errors"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"boardbot/internal/storage"
	"boardbot/pkg/tgui"
)

// onCallback dispatches inline-keyboard presses by "scope:action:payload".
func (b *Bot) onCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil || c.Sender() == nil {
		return nil
	}
	scope, action, payload := tgui.Split(cb.Data)

	switch scope {
	case scopeNoop:
		return c.Respond(&tele.CallbackResponse{})
	case scopeUser:
		if action == "select" {
			return b.cbSelectBoard(c, payload)
		}
	case scopeAdmin:
		return b.cbAdmin(c, action, payload)
	}
	return c.Respond(&tele.CallbackResponse{})
}

// cbSelectBoard records the user's board choice and refreshes the picker.
func (b *Bot) cbSelectBoard(c tele.Context, payload string) error {
	boardID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: b.t("board_not_found")})
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	user, err := b.store.UpsertUser(ctx, b.userRef(c.Sender()))
	if err != nil {
		return b.internalError(c, err)
	}
	board, err := b.store.GetBoard(ctx, boardID)
	if err != nil || !board.Active {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return b.internalError(c, err)
		}
		return c.Respond(&tele.CallbackResponse{Text: b.t("board_not_found")})
	}

	err = b.store.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.SetSelection(ctx, user.ID, board.ID); err != nil {
			return err
		}
		_, err := q.EnsureMembership(ctx, user.ID, board.ID)
		return err
	})
	if err != nil {
		return b.internalError(c, err)
	}

	boards, err := b.store.ListBoards(ctx, false)
	if err != nil {
		return b.internalError(c, err)
	}
	if err := c.Edit(b.t("board_selected", board.Title), boardPicker(boards, board.ID, b.t("no_boards"))); err != nil {
		// Edits fail when nothing changed; the selection itself stuck.
		b.log.Debug().Err(err).Msg("picker edit failed")
	}
	return c.Respond(&tele.CallbackResponse{})
}

// cbAdmin serves the inline admin panel.
func (b *Bot) cbAdmin(c tele.Context, action, payload string) error {
	actorID, ok := b.requireAnyAdmin(c)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: b.t("admin_denied")})
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	switch action {
	case "home":
		return b.edit(c, b.t("admin_panel"), adminHomeMarkup(b.t("btn_boards"), b.t("btn_stats")))

	case "boards":
		boards, err := b.store.ListBoards(ctx, true)
		if err != nil {
			return b.internalError(c, err)
		}
		if len(boards) == 0 {
			return b.edit(c, b.t("admin_no_boards"), adminHomeMarkup(b.t("btn_boards"), b.t("btn_stats")))
		}
		return b.edit(c, b.t("admin_boards"), adminBoardsMarkup(boards, b.t("btn_back")))

	case "stats":
		st, err := b.admins.Stats(ctx)
		if err != nil {
			return b.internalError(c, err)
		}
		return b.edit(c,
			b.t("admin_stats", st.Users, st.BoardsTotal, st.BoardsActive, st.PostsTotal, st.PostsActive),
			adminHomeMarkup(b.t("btn_boards"), b.t("btn_stats")))

	case "board":
		boardID, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: b.t("board_not_found")})
		}
		board, err := b.store.GetBoard(ctx, boardID)
		if errors.Is(err, storage.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: b.t("board_not_found")})
		}
		if err != nil {
			return b.internalError(c, err)
		}
		return b.showBoardDetails(c, board)

	case "archive", "activate":
		boardID, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: b.t("board_not_found")})
		}
		// Archiving is superadmin-only, matching the command surface.
		if _, ok := b.requireSuperadmin(c); !ok {
			return c.Respond(&tele.CallbackResponse{Text: b.t("admin_denied")})
		}
		board, err := b.admins.SetBoardActive(ctx, actorID, boardID, action == "activate")
		if errors.Is(err, storage.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: b.t("board_not_found")})
		}
		if err != nil {
			return b.internalError(c, err)
		}
		return b.showBoardDetails(c, board)
	}
	return c.Respond(&tele.CallbackResponse{})
}

func (b *Bot) showBoardDetails(c tele.Context, board storage.Board) error {
	status := b.t("status_archived")
	if board.Active {
		status = b.t("status_active")
	}
	text := b.t("admin_board_details",
		board.Title, board.ID, board.Channel, board.Slug, status, board.RateLimitSeconds, board.MaxTextLength)
	return b.edit(c, text, boardDetailsMarkup(board, b.t("btn_archive"), b.t("btn_activate"), b.t("btn_back")))
}

func (b *Bot) edit(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if err := c.Edit(text, markup); err != nil {
		b.log.Debug().Err(err).Msg("panel edit failed")
	}
	return c.Respond(&tele.CallbackResponse{})
}
