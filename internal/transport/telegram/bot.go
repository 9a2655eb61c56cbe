// Package telegram is the bot's only Telegram-facing surface: the
// long-poll loop, command and callback routing, and channel delivery for
// the posting engine.
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"

	"boardbot/internal/access"
	"boardbot/internal/admin"
	"boardbot/internal/posting"
	"boardbot/internal/storage"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
	Locale      string
}

// Bot wires telebot to the engine and the admin service.
type Bot struct {
	cfg Config
	log zerolog.Logger

	bot      *tele.Bot
	engine   *posting.Engine
	admins   *admin.Service
	store    *storage.Store
	resolver *access.Resolver
	flood    *floodLimiter
}

type Deps struct {
	Admins   *admin.Service
	Store    *storage.Store
	Resolver *access.Resolver
	Flood    FloodConfig
}

func New(cfg Config, deps Deps, log zerolog.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}

	b := &Bot{
		cfg:      cfg,
		log:      log,
		bot:      tb,
		admins:   deps.Admins,
		store:    deps.Store,
		resolver: deps.Resolver,
		flood:    newFloodLimiter(deps.Flood),
	}
	b.register()
	return b, nil
}

// SetEngine attaches the posting engine. The bot is also the engine's
// channel transport, so the two are constructed in sequence and tied
// together here before polling starts.
func (b *Bot) SetEngine(e *posting.Engine) { b.engine = e }

// Start begins long polling and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	b.log.Info().Msg("polling started")
	b.bot.Start()
	b.log.Info().Msg("polling stopped")
}

// Send publishes text to a channel and returns the message id. It
// implements posting.Transport.
func (b *Bot) Send(ctx context.Context, channel, text string) (int, error) {
	rcp, err := b.resolveChat(channel)
	if err != nil {
		return 0, err
	}
	msg, err := b.bot.Send(rcp, text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// Delete removes a previously published channel message. It implements
// posting.Transport.
func (b *Bot) Delete(ctx context.Context, channel string, messageID int) error {
	chat, err := b.resolveChat(channel)
	if err != nil {
		return err
	}
	return b.bot.Delete(tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chat.ID,
	})
}

// resolveChat maps a board's channel address ("@name" or a numeric id)
// to a chat.
func (b *Bot) resolveChat(channel string) (*tele.Chat, error) {
	channel = strings.TrimSpace(channel)
	if strings.HasPrefix(channel, "@") {
		return b.bot.ChatByUsername(channel)
	}
	id, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return nil, errors.New("channel address must be @username or a numeric chat id")
	}
	return &tele.Chat{ID: id}, nil
}

func (b *Bot) identity(u *tele.User) posting.Identity {
	if u == nil {
		return posting.Identity{}
	}
	return posting.Identity{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (b *Bot) userRef(u *tele.User) storage.UserRef {
	if u == nil {
		return storage.UserRef{}
	}
	return storage.UserRef{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
