package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/config"
)

// SessionSweeper periodically deletes vacancy points older than the session
// TTL, covering sessions whose match round never ran its purge.
type SessionSweeper struct {
	store    VectorStore
	ttl      time.Duration
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewSessionSweeper(store VectorStore, cfg *config.Config, log *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		ttl:      cfg.Session.TTL,
		schedule: cfg.Session.SweepSchedule,
		cron:     cron.New(),
		logger:   log,
	}
}

func (s *SessionSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("session sweeper started",
		zap.String("schedule", s.schedule), zap.Duration("ttl", s.ttl))
	return nil
}

func (s *SessionSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *SessionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.ttl)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Warn("session sweep failed",
			zap.Time("cutoff", cutoff), zap.Int("deleted", deleted), zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("swept stale vacancies",
			zap.Time("cutoff", cutoff), zap.Int("deleted", deleted))
	}
}
