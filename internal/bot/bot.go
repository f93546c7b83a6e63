package bot

import (
	"context"
	"fmt"

	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/internal/study"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// sender is the part of tgbotapi.BotAPI the bot needs
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot application
type Bot struct {
	api   *tgbotapi.BotAPI
	out   sender
	users *database.UserRepository
	study *study.Service
}

// New connects to Telegram with token
func New(token string, users *database.UserRepository, svc *study.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")

	b := newBot(api, users, svc)
	b.api = api
	return b, nil
}

func newBot(out sender, users *database.UserRepository, svc *study.Service) *Bot {
	return &Bot{out: out, users: users, study: svc}
}

// Run polls for updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Info().Msg("telegram bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(_ context.Context, reminder *study.Reminder) error {
	if reminder.ChatID == 0 {
		return fmt.Errorf("user %d has no linked chat", reminder.UserID)
	}
	msg := tgbotapi.NewMessage(reminder.ChatID, ReminderText(reminder))
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	if err := b.sendMessage(msg); err != nil {
		return err
	}
	log.Debug().Int64("user_id", reminder.UserID).Msg("reminder sent")
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		err = b.sendMessage(tgbotapi.NewMessage(update.Message.Chat.ID, "I don't understand. Use /help to see the commands."))
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		log.Error().Err(err).Int("update_id", update.UpdateID).Msg("handling telegram update")
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.out.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
