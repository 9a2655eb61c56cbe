package telegram

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	"boardbot/internal/storage"
	"boardbot/pkg/tgui"
)

const (
	scopeUser  = "user"
	scopeAdmin = "admin"
	scopeNoop  = "noop"
)

// boardPicker lays out active boards in a two-column grid, marking the
// user's current selection.
func boardPicker(boards []storage.Board, selectedID int64, emptyLabel string) *tele.ReplyMarkup {
	if len(boards) == 0 {
		return tgui.NewInline().Row(tgui.Btn(emptyLabel, tgui.Data(scopeNoop, "", ""))).Markup()
	}
	btns := make([]tele.Btn, 0, len(boards))
	for _, board := range boards {
		title := tgui.TruncRunes(board.Title, 32)
		if board.ID == selectedID {
			title = "✅ " + title
		}
		btns = append(btns, tgui.Btn(title, tgui.Data(scopeUser, "select", strconv.FormatInt(board.ID, 10))))
	}
	return tgui.Grid2(btns)
}

func adminHomeMarkup(boardsLabel, statsLabel string) *tele.ReplyMarkup {
	return tgui.NewInline().
		Row(tgui.Btn(boardsLabel, tgui.Data(scopeAdmin, "boards", ""))).
		Row(tgui.Btn(statsLabel, tgui.Data(scopeAdmin, "stats", ""))).
		Markup()
}

func adminBoardsMarkup(boards []storage.Board, backLabel string) *tele.ReplyMarkup {
	kb := tgui.NewInline()
	for _, board := range boards {
		label := tgui.TruncRunes(board.Title, 32)
		if !board.Active {
			label = "🗄 " + label
		}
		kb.Row(tgui.Btn(label, tgui.Data(scopeAdmin, "board", strconv.FormatInt(board.ID, 10))))
	}
	kb.Row(tgui.Btn(backLabel, tgui.Data(scopeAdmin, "home", "")))
	return kb.Markup()
}

func boardDetailsMarkup(board storage.Board, archiveLabel, activateLabel, backLabel string) *tele.ReplyMarkup {
	id := strconv.FormatInt(board.ID, 10)
	kb := tgui.NewInline()
	if board.Active {
		kb.Row(tgui.Btn(archiveLabel, tgui.Data(scopeAdmin, "archive", id)))
	} else {
		kb.Row(tgui.Btn(activateLabel, tgui.Data(scopeAdmin, "activate", id)))
	}
	kb.Row(tgui.Btn(backLabel, tgui.Data(scopeAdmin, "boards", "")))
	return kb.Markup()
}
