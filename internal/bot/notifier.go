package bot

import (
	"context"

	"github.com/example/precedents/internal/study"
	"github.com/rs/zerolog/log"
)

// LogNotifier writes reminders to the log; used when no bot token is set
type LogNotifier struct{}

// SendReminder implements the scheduler.Notifier interface
func (LogNotifier) SendReminder(_ context.Context, r *study.Reminder) error {
	log.Info().
		Int64("user_id", r.UserID).
		Int("unread", r.Unread).
		Int("due_reviews", r.DueReviews).
		Int("streak", r.Streak.Current).
		Msg(ReminderText(r))
	return nil
}
