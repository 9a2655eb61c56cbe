// Package locales holds user-facing strings. Replies go out in the
// configured locale; unknown locales fall back to English.
package locales

import "fmt"

var en = map[string]string{
	"welcome":           "Hi! I publish anonymous messages to boards. Pick a board below.",
	"help":              "Send me text and I will publish it anonymously to your selected board.\nSwitch boards: /boards\nAdmin panel: /admin",
	"no_board_selected": "Pick a board first using the buttons below.",
	"board_selected":    "Selected board: %s",
	"board_not_found":   "Board not found or unavailable.",
	"board_inactive":    "This board is not active right now.",
	"too_often":         "Too often. At least %d seconds must pass between posts.",
	"user_blocked":      "You cannot post to this board. Contact an administrator.",
	"post_too_long":     "Message too long. Maximum: %d characters.",
	"publish_success":   "Published to «%s».",
	"publish_error":     "Could not deliver the message to the channel. Try again later.",
	"unknown_command":   "Unknown command. Try /help.",
	"no_boards":         "No boards available yet.",
	"admin_denied":      "You are not allowed to do that.",
	"admin_panel":       "Admin panel. Pick a section:",
	"admin_boards":      "Boards:",
	"admin_no_boards":   "No boards yet. Create one with /board_create.",
	"admin_board_details": "%s\nID: %d\nChannel: %s\nSlug: %s\nStatus: %s\nRate limit: %d s\nMax length: %d",
	"admin_board_created":   "Board created: %s (ID %d).",
	"admin_board_archived":  "Board «%s» archived.",
	"admin_board_activated": "Board «%s» activated.",
	"admin_role_granted":    "Access granted.",
	"admin_role_removed":    "Access removed (%d grant(s)).",
	"admin_user_blocked":    "User %d blocked on «%s».",
	"admin_user_unblocked":  "User %d unblocked on «%s».",
	"admin_rate_updated":    "Rate limit for «%s» set to %d s.",
	"admin_stats":           "Stats\nUsers: %d\nBoards total: %d\nBoards active: %d\nPosts total: %d\nPosts active: %d",
	"status_active":         "active",
	"status_archived":       "archived",
	"invalid_args":          "Bad arguments. %s",
	"internal_error":        "Something went wrong. Try again later.",
	"btn_boards":            "Boards",
	"btn_stats":             "Stats",
	"btn_back":              "← Back",
	"btn_archive":           "Archive",
	"btn_activate":          "Activate",
}

var ru = map[string]string{
	"welcome":           "Привет! Я публикую анонимные сообщения в доски. Выбери доску ниже.",
	"help":              "Отправь текст, и я опубликую его анонимно в выбранной доске.\nСменить доску: /boards\nАдмин-панель: /admin",
	"no_board_selected": "Сначала выбери доску через кнопки ниже.",
	"board_selected":    "Выбрана доска: %s",
	"board_not_found":   "Доска не найдена или недоступна.",
	"board_inactive":    "Эта доска сейчас не активна.",
	"too_often":         "Слишком часто. Между постами должно пройти минимум %d сек.",
	"user_blocked":      "Вы не можете публиковать в этой доске. Обратитесь к администратору.",
	"post_too_long":     "Сообщение слишком длинное. Максимум: %d символов.",
	"publish_success":   "Сообщение опубликовано в «%s».",
	"publish_error":     "Не удалось отправить сообщение в канал. Попробуйте позже.",
	"unknown_command":   "Не понял команду. Используй /help.",
	"no_boards":         "Пока нет доступных досок.",
	"admin_denied":      "Недостаточно прав для этого действия.",
	"admin_panel":       "Админ-панель. Выберите раздел:",
	"admin_boards":      "Список досок:",
	"admin_no_boards":   "Пока нет досок. Создайте через /board_create.",
	"admin_board_details": "%s\nID: %d\nКанал: %s\nSlug: %s\nСтатус: %s\nЛимит: %d сек\nМакс. длина: %d",
	"admin_board_created":   "Доска создана: %s (ID %d).",
	"admin_board_archived":  "Доска «%s» архивирована.",
	"admin_board_activated": "Доска «%s» активирована.",
	"admin_role_granted":    "Права выданы.",
	"admin_role_removed":    "Права сняты (%d).",
	"admin_user_blocked":    "Пользователь %d заблокирован в доске «%s».",
	"admin_user_unblocked":  "Пользователь %d разблокирован в доске «%s».",
	"admin_rate_updated":    "Для доски «%s» лимит установлен: %d сек.",
	"admin_stats":           "Статистика\nПользователей: %d\nДосок всего: %d\nДосок активных: %d\nПостов всего: %d\nАктивных постов: %d",
	"status_active":         "активна",
	"status_archived":       "в архиве",
	"invalid_args":          "Некорректные аргументы. %s",
	"internal_error":        "Что-то пошло не так. Попробуйте позже.",
	"btn_boards":            "Доски",
	"btn_stats":             "Статистика",
	"btn_back":              "← Назад",
	"btn_archive":           "Архивировать",
	"btn_activate":          "Активировать",
}

var locales = map[string]map[string]string{
	"en": en,
	"ru": ru,
}

// T formats the message for key in the given locale. Unknown keys come
// back verbatim so a missing translation is visible instead of silent.
func T(locale, key string, args ...any) string {
	msgs, ok := locales[locale]
	if !ok {
		msgs = en
	}
	tmpl, ok := msgs[key]
	if !ok {
		if tmpl, ok = en[key]; !ok {
			return key
		}
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Supported reports whether the locale has a message table.
func Supported(locale string) bool {
	_, ok := locales[locale]
	return ok
}
