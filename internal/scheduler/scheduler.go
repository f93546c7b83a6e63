package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/internal/metrics"
	"github.com/example/precedents/internal/study"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// Default notification window, in study-timezone hours
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     *database.UserRepository
	study     *study.Service
	sessions  SessionPurger

	startHour int
	endHour   int
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, reminder *study.Reminder) error
}

// SessionPurger removes expired login sessions
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Options configures the reminder window
type Options struct {
	StartHour int
	EndHour   int
}

// New creates a new scheduler instance running in the study timezone
func New(notifier Notifier, users *database.UserRepository, svc *study.Service, sessions SessionPurger, opts Options) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(svc.Location()),
		notifier:  notifier,
		users:     users,
		study:     svc,
		sessions:  sessions,
		startHour: opts.StartHour,
		endHour:   opts.EndHour,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	// Reminders go out at the top of every hour
	if _, err := s.scheduler.Cron("0 * * * *").Do(func() {
		if _, err := s.RunOnce(ctx, s.study.Now()); err != nil {
			log.Error().Err(err).Msg("reminder run failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}

	if _, err := s.scheduler.Every(1).Day().At("03:30").Do(func() {
		n, err := s.sessions.PurgeExpired(ctx)
		if err != nil {
			log.Error().Err(err).Msg("session purge failed")
			return
		}
		log.Info().Int64("deleted", n).Msg("expired sessions purged")
	}); err != nil {
		return fmt.Errorf("schedule session purge: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// InWindow reports whether hour falls inside the notification window
func (s *Scheduler) InWindow(hour int) bool {
	return hour >= s.startHour && hour <= s.endHour
}

// RunOnce sends the reminders due at now and returns how many were sent.
// Users that already studied today are skipped.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (int, error) {
	hour := now.In(s.study.Location()).Hour()
	if !s.InWindow(hour) {
		log.Debug().Int("hour", hour).Int("start", s.startHour).Int("end", s.endHour).
			Msg("outside notification hours, skipping reminders")
		return 0, nil
	}

	// Get users who should receive notifications at the current hour
	users, err := s.users.ListForNotification(ctx, hour)
	if err != nil {
		return 0, fmt.Errorf("list users for notification: %w", err)
	}

	sent := 0
	for i := range users {
		user := &users[i]
		reminder, err := s.study.ReminderFor(ctx, user)
		if err != nil {
			log.Error().Err(err).Int64("user_id", user.ID).Msg("building reminder")
			metrics.RemindersSent.WithLabelValues("failed").Inc()
			continue
		}
		if reminder.StudiedToday {
			metrics.RemindersSent.WithLabelValues("skipped").Inc()
			continue
		}

		if err := s.notifier.SendReminder(ctx, reminder); err != nil {
			log.Error().Err(err).Int64("user_id", user.ID).Msg("sending reminder")
			metrics.RemindersSent.WithLabelValues("failed").Inc()
			continue
		}
		metrics.RemindersSent.WithLabelValues("sent").Inc()
		sent++
	}
	return sent, nil
}
