package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/internal/stats"
	"github.com/example/precedents/internal/study"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Constants for callback data
const (
	callbackStats = "stats"
	callbackHelp  = "help"
)

// statsHeatmapDays is the window shown by /stats
const statsHeatmapDays = 7

func mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📊 Stats", CallbackData: callbackStats}, {Text: "❓ Help", CallbackData: callbackHelp}},
	}
}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message.Chat == nil {
		return fmt.Errorf("invalid message: chat is missing")
	}
	chatID := message.Chat.ID
	switch message.Command() {
	case "start":
		return b.handleStart(chatID)
	case "help":
		return b.handleHelp(chatID)
	case "stats":
		return b.handleStats(ctx, chatID)
	default:
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Unknown command. Use /help to see the commands."))
	}
}

// HandleCallback handles presses on the menu buttons
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if _, err := b.out.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	if callback.Message == nil || callback.Message.Chat == nil {
		return nil
	}
	chatID := callback.Message.Chat.ID
	switch callback.Data {
	case callbackStats:
		return b.handleStats(ctx, chatID)
	case callbackHelp:
		return b.handleHelp(chatID)
	}
	return nil
}

func (b *Bot) handleStart(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, StartText(chatID))
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) error {
	user, err := b.users.GetByTelegramChatID(ctx, chatID)
	if errors.Is(err, database.ErrNotFound) {
		return b.sendMessage(tgbotapi.NewMessage(chatID, notLinkedText(chatID)))
	}
	if err != nil {
		return err
	}
	if !user.HasTrack() {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Choose your career track in the web app to start tracking progress."))
	}

	summary, err := b.study.Summary(ctx, user, statsHeatmapDays)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}
	return b.sendMessage(tgbotapi.NewMessage(chatID, StatsText(summary)))
}

const helpText = "📖 Commands\n\n" +
	"/start - Show your chat id for linking\n" +
	"/stats - Your streak, reads today and accuracy\n" +
	"/help - Show this help\n\n" +
	"Reminders are sent at the hour set in your profile on days you have not studied yet."

// StartText is the reply to /start
func StartText(chatID int64) string {
	return fmt.Sprintf("👋 Welcome to Precedents!\n\n"+
		"Your chat id is %d.\n"+
		"Paste it in the notification settings of your profile to receive study reminders here.", chatID)
}

func notLinkedText(chatID int64) string {
	return fmt.Sprintf("This chat is not linked to an account yet. Set chat id %d in your profile.", chatID)
}

// StatsText renders a progress summary
func StatsText(s *stats.Summary) string {
	var text strings.Builder
	text.WriteString("📊 Your progress\n\n")
	fmt.Fprintf(&text, "Track: %s\n", s.Track.Label())
	fmt.Fprintf(&text, "Read: %d of %d (%.1f%%)\n", s.Read, s.Eligible, s.Percent)
	fmt.Fprintf(&text, "Read today: %d\n", s.ReadsToday)
	fmt.Fprintf(&text, "🔥 Streak: %s (best %s)\n", days(s.Streak.Current), days(s.Streak.Longest))
	if s.Accuracy.Total > 0 {
		fmt.Fprintf(&text, "🎯 Accuracy: %d/%d (%.1f%%)\n", s.Accuracy.Correct, s.Accuracy.Total, s.Accuracy.Ratio*100)
	} else {
		text.WriteString("🎯 Accuracy: no answers yet\n")
	}
	if s.DueReviews > 0 {
		fmt.Fprintf(&text, "🔄 Reviews due: %d\n", s.DueReviews)
	}
	return text.String()
}

// ReminderText renders a study reminder
func ReminderText(r *study.Reminder) string {
	var text strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&text, "Hi %s! ", r.Name)
	}
	text.WriteString("📚 You have not studied today yet.\n")
	if r.Streak.Current > 0 {
		fmt.Fprintf(&text, "🔥 Keep your %s streak alive.\n", days(r.Streak.Current))
	}
	if r.Unread > 0 {
		fmt.Fprintf(&text, "Unread precedents: %d\n", r.Unread)
	}
	if r.DueReviews > 0 {
		fmt.Fprintf(&text, "Reviews due: %d\n", r.DueReviews)
	}
	return text.String()
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
