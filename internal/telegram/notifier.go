// Package telegram posts moderation alerts to an admin Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"time"

	"wantok/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Sender is the part of tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends report and suspension alerts to moderators.
// A nil *Notifier is valid and sends nothing.
type Notifier struct {
	Bot    Sender
	ChatID int64
}

// NewNotifier connects to the Bot API. It returns a nil notifier when token or chatID
// is not configured.
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	if token == "" || chatID == 0 {
		log.Info().Msg("telegram notifier disabled")
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	bot.Debug = false
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier authorized")

	return &Notifier{Bot: bot, ChatID: chatID}, nil
}

func (n *Notifier) NotifyReport(ctx context.Context, report models.Report) error {
	text := fmt.Sprintf(
		"<b>New report #%d</b>\nReported: %s (%s)\nReporter: %s\nReason: %s",
		report.ID,
		esc(report.ReportedUsername),
		esc(report.ReportedUserID),
		esc(report.ReporterID),
		esc(report.Reason),
	)
	return n.send(ctx, text)
}

func (n *Notifier) NotifySuspension(ctx context.Context, s models.Suspension) error {
	until := "permanent"
	if exp := s.Expiry(); exp != nil {
		until = "until " + exp.UTC().Format(time.RFC1123)
	}
	text := fmt.Sprintf(
		"<b>User suspended</b>\nUser: %s (%s)\nReason: %s\nSuspension: %s",
		esc(s.Username),
		esc(s.UserID),
		esc(s.Reason),
		until,
	)
	return n.send(ctx, text)
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if n == nil || n.Bot == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.ChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.Bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
