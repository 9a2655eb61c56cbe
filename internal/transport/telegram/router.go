package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"boardbot/internal/locales"
	"boardbot/internal/posting"
	"boardbot/internal/storage"
)

func (b *Bot) register() {
	b.bot.Use(b.flood.middleware)

	b.bot.Handle("/start", b.onStart)
	b.bot.Handle("/help", b.onHelp)
	b.bot.Handle("/boards", b.onBoards)

	b.bot.Handle("/admin", b.onAdmin)
	b.bot.Handle("/stats", b.onStats)
	b.bot.Handle("/board_create", b.onBoardCreate)
	b.bot.Handle("/board_archive", b.onBoardArchive)
	b.bot.Handle("/board_activate", b.onBoardActivate)
	b.bot.Handle("/rate_limit", b.onRateLimit)
	b.bot.Handle("/grant", b.onGrant)
	b.bot.Handle("/revoke", b.onRevoke)
	b.bot.Handle("/block", b.onBlock)
	b.bot.Handle("/unblock", b.onUnblock)

	b.bot.Handle(tele.OnText, b.onText)
	b.bot.Handle(tele.OnCallback, b.onCallback)
}

func (b *Bot) t(key string, args ...any) string {
	return locales.T(b.cfg.Locale, key, args...)
}

func (b *Bot) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

// sendPicker shows the active boards keyboard, syncing the user row
// first so the selection marker is accurate.
func (b *Bot) sendPicker(c tele.Context, text string) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	user, err := b.store.UpsertUser(ctx, b.userRef(c.Sender()))
	if err != nil {
		return b.internalError(c, err)
	}
	boards, err := b.store.ListBoards(ctx, false)
	if err != nil {
		return b.internalError(c, err)
	}
	var selectedID int64
	if sel, err := b.store.GetSelection(ctx, user.ID); err == nil {
		selectedID = sel.BoardID
	} else if !errors.Is(err, storage.ErrNotFound) {
		return b.internalError(c, err)
	}
	return c.Send(text, boardPicker(boards, selectedID, b.t("no_boards")))
}

func (b *Bot) onStart(c tele.Context) error {
	return b.sendPicker(c, b.t("welcome"))
}

func (b *Bot) onHelp(c tele.Context) error {
	return c.Send(b.t("help"))
}

func (b *Bot) onBoards(c tele.Context) error {
	return b.sendPicker(c, b.t("no_board_selected"))
}

// onText feeds non-command text into the posting engine and maps each
// outcome to its localized reply.
func (b *Bot) onText(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	text := c.Text()
	if strings.HasPrefix(text, "/") {
		return c.Send(b.t("unknown_command"))
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	res, err := b.engine.Submit(ctx, b.identity(c.Sender()), text)
	if err != nil {
		return b.internalError(c, err)
	}

	switch res.Status {
	case posting.StatusNoBoardSelected:
		return b.sendPicker(c, b.t("no_board_selected"))
	case posting.StatusBoardInactive:
		return c.Send(b.t("board_inactive"))
	case posting.StatusBlocked:
		return c.Send(b.t("user_blocked"))
	case posting.StatusTooLong:
		return c.Send(b.t("post_too_long", res.MaxTextLength))
	case posting.StatusTooOften:
		return c.Send(b.t("too_often", res.RateLimitSeconds))
	case posting.StatusPublishError:
		return c.Send(b.t("publish_error"))
	case posting.StatusSuccess:
		return c.Send(b.t("publish_success", res.BoardTitle))
	default:
		return c.Send(b.t("publish_error"))
	}
}

// requireAnyAdmin syncs the user and checks for any admin privilege.
// It replies with a denial itself; callers just stop on false.
func (b *Bot) requireAnyAdmin(c tele.Context) (int64, bool) {
	return b.requireAccess(c, func(ctx context.Context, userID int64) (bool, error) {
		return b.resolver.IsAnyAdmin(ctx, b.store, userID)
	})
}

func (b *Bot) requireSuperadmin(c tele.Context) (int64, bool) {
	return b.requireAccess(c, func(ctx context.Context, userID int64) (bool, error) {
		return b.resolver.IsSuperadmin(ctx, b.store, userID)
	})
}

func (b *Bot) requireBoardAdmin(c tele.Context, boardID int64) (int64, bool) {
	return b.requireAccess(c, func(ctx context.Context, userID int64) (bool, error) {
		return b.resolver.IsBoardAdmin(ctx, b.store, userID, boardID)
	})
}

func (b *Bot) requireAccess(c tele.Context, check func(context.Context, int64) (bool, error)) (int64, bool) {
	sender := c.Sender()
	if sender == nil {
		return 0, false
	}
	ctx, cancel := b.opCtx()
	defer cancel()

	if _, err := b.store.UpsertUser(ctx, b.userRef(sender)); err != nil {
		_ = b.internalError(c, err)
		return 0, false
	}
	ok, err := check(ctx, sender.ID)
	if err != nil {
		_ = b.internalError(c, err)
		return 0, false
	}
	if !ok {
		_ = c.Send(b.t("admin_denied"))
		return 0, false
	}
	return sender.ID, true
}

func (b *Bot) onAdmin(c tele.Context) error {
	if _, ok := b.requireAnyAdmin(c); !ok {
		return nil
	}
	return c.Send(b.t("admin_panel"), adminHomeMarkup(b.t("btn_boards"), b.t("btn_stats")))
}

func (b *Bot) onStats(c tele.Context) error {
	if _, ok := b.requireAnyAdmin(c); !ok {
		return nil
	}
	ctx, cancel := b.opCtx()
	defer cancel()

	st, err := b.admins.Stats(ctx)
	if err != nil {
		return b.internalError(c, err)
	}
	return c.Send(b.t("admin_stats", st.Users, st.BoardsTotal, st.BoardsActive, st.PostsTotal, st.PostsActive))
}

// onBoardCreate handles "/board_create <channel> <title...>".
func (b *Bot) onBoardCreate(c tele.Context) error {
	actorID, ok := b.requireSuperadmin(c)
	if !ok {
		return nil
	}
	args := c.Args()
	if len(args) < 2 {
		return c.Send(b.t("invalid_args", "/board_create <@channel|chat_id> <title>"))
	}
	channel := args[0]
	title := strings.Join(args[1:], " ")

	ctx, cancel := b.opCtx()
	defer cancel()

	board, err := b.admins.CreateBoard(ctx, actorID, title, channel)
	if err != nil {
		return b.internalError(c, err)
	}
	return c.Send(b.t("admin_board_created", board.Title, board.ID))
}

func (b *Bot) onBoardArchive(c tele.Context) error {
	return b.setBoardActiveCmd(c, false)
}

func (b *Bot) onBoardActivate(c tele.Context) error {
	return b.setBoardActiveCmd(c, true)
}

func (b *Bot) setBoardActiveCmd(c tele.Context, active bool) error {
	actorID, ok := b.requireSuperadmin(c)
	if !ok {
		return nil
	}
	args := c.Args()
	if len(args) != 1 {
		return c.Send(b.t("invalid_args", "<board_id>"))
	}
	boardID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send(b.t("invalid_args", "<board_id>"))
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	board, err := b.admins.SetBoardActive(ctx, actorID, boardID, active)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Send(b.t("board_not_found"))
	}
	if err != nil {
		return b.internalError(c, err)
	}
	if active {
		return c.Send(b.t("admin_board_activated", board.Title))
	}
	return c.Send(b.t("admin_board_archived", board.Title))
}

// onRateLimit handles "/rate_limit <board_id> <seconds>".
func (b *Bot) onRateLimit(c tele.Context) error {
	args := c.Args()
	if len(args) != 2 {
		return c.Send(b.t("invalid_args", "/rate_limit <board_id> <seconds>"))
	}
	boardID, err1 := strconv.ParseInt(args[0], 10, 64)
	seconds, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil || seconds <= 0 {
		return c.Send(b.t("invalid_args", "/rate_limit <board_id> <seconds>"))
	}
	actorID, ok := b.requireBoardAdmin(c, boardID)
	if !ok {
		return nil
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	board, err := b.admins.SetRateLimit(ctx, actorID, boardID, seconds)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Send(b.t("board_not_found"))
	}
	if err != nil {
		return b.internalError(c, err)
	}
	return c.Send(b.t("admin_rate_updated", board.Title, board.RateLimitSeconds))
}

// onGrant handles "/grant <user_id>" (superadmin role) and
// "/grant <user_id> <board_id>" (board admin role).
func (b *Bot) onGrant(c tele.Context) error {
	actorID, ok := b.requireSuperadmin(c)
	if !ok {
		return nil
	}
	userID, boardID, ok := parseUserBoardArgs(c.Args())
	if !ok {
		return c.Send(b.t("invalid_args", "/grant <user_id> [board_id]"))
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	var err error
	if boardID == 0 {
		err = b.admins.GrantSuperadmin(ctx, actorID, userID)
	} else {
		err = b.admins.GrantBoardAdmin(ctx, actorID, userID, boardID)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return c.Send(b.t("board_not_found"))
	}
	if err != nil {
		return b.internalError(c, err)
	}
	return c.Send(b.t("admin_role_granted"))
}

// onRevoke mirrors onGrant.
func (b *Bot) onRevoke(c tele.Context) error {
	actorID, ok := b.requireSuperadmin(c)
	if !ok {
		return nil
	}
	userID, boardID, ok := parseUserBoardArgs(c.Args())
	if !ok {
		return c.Send(b.t("invalid_args", "/revoke <user_id> [board_id]"))
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	var (
		removed int64
		err     error
	)
	if boardID == 0 {
		removed, err = b.admins.RevokeSuperadmin(ctx, actorID, userID)
	} else {
		removed, err = b.admins.RevokeBoardAdmin(ctx, actorID, userID, boardID)
	}
	if err != nil {
		return b.internalError(c, err)
	}
	return c.Send(b.t("admin_role_removed", removed))
}

func (b *Bot) onBlock(c tele.Context) error {
	return b.setBlockedCmd(c, true)
}

func (b *Bot) onUnblock(c tele.Context) error {
	return b.setBlockedCmd(c, false)
}

// setBlockedCmd handles "/block <user_id> <board_id>" and its inverse.
func (b *Bot) setBlockedCmd(c tele.Context, blocked bool) error {
	args := c.Args()
	if len(args) != 2 {
		return c.Send(b.t("invalid_args", "<user_id> <board_id>"))
	}
	userID, err1 := strconv.ParseInt(args[0], 10, 64)
	boardID, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		return c.Send(b.t("invalid_args", "<user_id> <board_id>"))
	}
	actorID, ok := b.requireBoardAdmin(c, boardID)
	if !ok {
		return nil
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	if err := b.admins.SetBlocked(ctx, actorID, userID, boardID, blocked); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Send(b.t("board_not_found"))
		}
		return b.internalError(c, err)
	}
	board, err := b.store.GetBoard(ctx, boardID)
	if err != nil {
		return b.internalError(c, err)
	}
	if blocked {
		return c.Send(b.t("admin_user_blocked", userID, board.Title))
	}
	return c.Send(b.t("admin_user_unblocked", userID, board.Title))
}

func parseUserBoardArgs(args []string) (userID, boardID int64, ok bool) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, false
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, 0, false
	}
	if len(args) == 2 {
		boardID, err = strconv.ParseInt(args[1], 10, 64)
		if err != nil || boardID <= 0 {
			return 0, 0, false
		}
	}
	return userID, boardID, true
}

func (b *Bot) internalError(c tele.Context, err error) error {
	b.log.Error().Err(err).Int64("user_id", senderID(c)).Msg("handler failed")
	return c.Send(b.t("internal_error"))
}

func senderID(c tele.Context) int64 {
	if s := c.Sender(); s != nil {
		return s.ID
	}
	return 0
}
