// Package stats logs a periodic snapshot of aggregate totals (users,
// boards, posts) on a cron schedule.
package stats

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"boardbot/internal/storage"
)

type Service struct {
	store    *storage.Store
	log      zerolog.Logger
	schedule string
	cron     *cron.Cron
}

// New builds the reporter. schedule accepts a standard 5-field cron spec
// or a descriptor like "@every 24h".
func New(store *storage.Store, schedule string, log zerolog.Logger) *Service {
	return &Service{store: store, log: log, schedule: schedule}
}

func (s *Service) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.snapshot); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("stats reporter started")
	return nil
}

func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Service) snapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := s.store.Stats(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stats snapshot failed")
		return
	}
	s.log.Info().
		Int("users", st.Users).
		Int("boards_total", st.BoardsTotal).
		Int("boards_active", st.BoardsActive).
		Int("posts_total", st.PostsTotal).
		Int("posts_active", st.PostsActive).
		Msg("stats snapshot")
}
