// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/eventdesk-go/internal/auth"
	"github.com/olegiv/eventdesk-go/internal/logging"
)

// Scheduler handles scheduled maintenance: audit log retention and
// allow-list cache refresh.
type Scheduler struct {
	db        *sql.DB
	cron      *cron.Cron
	logger    *slog.Logger
	allowList *auth.CachedAllowList
	retention time.Duration
}

// New creates a new scheduler instance.
func New(db *sql.DB, logger *slog.Logger, allowList *auth.CachedAllowList, retention time.Duration) *Scheduler {
	return &Scheduler{
		db:        db,
		cron:      cron.New(),
		logger:    logger,
		allowList: allowList,
		retention: retention,
	}
}

// Start registers the maintenance jobs and begins the schedule.
func (s *Scheduler) Start() error {
	// Purge old audit entries once a day.
	_, err := s.cron.AddFunc("30 3 * * *", func() {
		cutoff := time.Now().Add(-s.retention)
		n, err := logging.PurgeBefore(context.Background(), s.db, cutoff)
		if err != nil {
			s.logger.Error("failed to purge audit log", "error", err)
			return
		}
		if n > 0 {
			s.logger.Info("purged audit log entries", "count", n, "cutoff", cutoff)
		}
	})
	if err != nil {
		return err
	}

	// Drop expired browser session rows. The session store's own background
	// cleanup is disabled in favor of this job.
	if _, err := s.cron.AddFunc("*/15 * * * *", func() {
		res, err := s.db.ExecContext(context.Background(),
			`DELETE FROM sessions WHERE expiry < julianday('now')`)
		if err != nil {
			s.logger.Error("failed to purge expired sessions", "error", err)
			return
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.logger.Info("purged expired sessions", "count", n)
		}
	}); err != nil {
		return err
	}

	// Pick up out-of-band allow-list edits within the hour.
	if s.allowList != nil {
		if _, err := s.cron.AddFunc("0 * * * *", func() {
			s.allowList.Invalidate(context.Background())
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
