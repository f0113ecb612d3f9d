// internal/infra/notify/commands.go
package notify

import (
	"context"
	"strconv"
	"strings"
	"time"

	"healthsched/internal/app"
	"healthsched/internal/domain/record"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterCommandHandlers wires the chat commands that drive record
// mutations from the notification chat itself: quick ad-hoc reminders and
// dose logging in response to a delivered dose alert. Only the configured
// notify chat is accepted.
func RegisterCommandHandlers(ctx context.Context, b *telebot.Bot, records *app.RecordService, notifyChatID int64, baseLogger *logrus.Entry) {
	b.Handle("/remind", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/remind",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != notifyChatID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("This bot only accepts commands from its configured chat.")
		}

		args := c.Args()
		// Expected format: /remind <minutes> <title...>
		if len(args) < 2 {
			return c.Send("Usage: /remind <minutes> <title>")
		}
		minutes, err := strconv.Atoi(args[0])
		if err != nil || minutes <= 0 {
			return c.Send("Minutes must be a positive number.")
		}

		r := &record.Reminder{
			Title:   strings.Join(args[1:], " "),
			FireAt:  time.Now().Add(time.Duration(minutes) * time.Minute),
			Enabled: true,
		}
		if _, err := records.SaveReminder(ctx, r); err != nil {
			handlerLogger.WithError(err).Error("Failed to save reminder")
			return c.Send("Could not save the reminder, please try again.")
		}
		handlerLogger.WithField("reminder_id", r.ID).Info("Reminder created")
		return c.Send("Reminder set for " + r.FireAt.Format("15:04") + ".")
	})

	b.Handle("/took", func(c telebot.Context) error {
		return handleDose(ctx, c, records, notifyChatID, false, baseLogger)
	})

	b.Handle("/skipped", func(c telebot.Context) error {
		return handleDose(ctx, c, records, notifyChatID, true, baseLogger)
	})
}

func handleDose(ctx context.Context, c telebot.Context, records *app.RecordService, notifyChatID int64, skipped bool, baseLogger *logrus.Entry) error {
	command := "/took"
	if skipped {
		command = "/skipped"
	}
	handlerLogger := baseLogger.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": c.Sender().ID,
	})
	if c.Sender().ID != notifyChatID {
		handlerLogger.Warn("Unauthorized access attempt")
		return c.Send("This bot only accepts commands from its configured chat.")
	}

	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: " + command + " <medication id>")
	}

	m, err := records.LogDose(ctx, args[0], time.Now(), skipped)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to log dose")
		return c.Send("Could not log the dose, check the medication id.")
	}
	handlerLogger.WithField("medication_id", m.ID).Info("Dose logged")
	if skipped {
		return c.Send("Skipped dose of " + m.Name + " logged.")
	}
	if m.PillsRemaining != nil {
		return c.Send("Dose of " + m.Name + " logged, " + strconv.Itoa(*m.PillsRemaining) + " pill(s) left.")
	}
	return c.Send("Dose of " + m.Name + " logged.")
}
