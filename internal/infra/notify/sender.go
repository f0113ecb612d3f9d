// internal/infra/notify/sender.go
package notify

import "gopkg.in/telebot.v3"

// Sender abstracts the message-delivery side of the Telegram bot so the
// gateway can be exercised without a live bot.
type Sender interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}

// TelebotAdapter implements Sender using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified recipient chat.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	_, err := tba.bot.Send(&telebot.User{ID: recipientChatID}, text, options)
	return err
}
