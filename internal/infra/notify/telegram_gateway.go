// internal/infra/notify/telegram_gateway.go
package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"healthsched/internal/domain/gateway"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

type pendingAlert struct {
	fireAt  time.Time
	payload gateway.Payload
	timer   *time.Timer
}

// TelegramGateway is the production notification facility: scheduled alerts
// are held in an in-process timer table and delivered as Telegram messages
// when they come due. A zero notify chat means the user has not granted a
// delivery destination, which maps to ErrSchedulingDenied.
type TelegramGateway struct {
	sender Sender
	chatID int64
	logger *logrus.Logger

	mu     sync.Mutex
	alerts map[string]*pendingAlert
}

func NewTelegramGateway(sender Sender, chatID int64, logger *logrus.Logger) *TelegramGateway {
	return &TelegramGateway{
		sender: sender,
		chatID: chatID,
		logger: logger,
		alerts: make(map[string]*pendingAlert),
	}
}

// Schedule registers an alert under key, replacing any previous alert with
// the same key.
func (g *TelegramGateway) Schedule(key string, fireAt time.Time, payload gateway.Payload) error {
	if g.chatID == 0 {
		return gateway.ErrSchedulingDenied
	}
	delay := time.Until(fireAt)
	if delay <= 0 {
		return fmt.Errorf("alert %q: %w", key, gateway.ErrInvalidFireTime)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.alerts[key]; ok {
		prev.timer.Stop()
	}
	g.alerts[key] = &pendingAlert{
		fireAt:  fireAt,
		payload: payload,
		timer:   time.AfterFunc(delay, func() { g.fire(key) }),
	}
	return nil
}

// Cancel removes the alert under key; unknown keys are a no-op.
func (g *TelegramGateway) Cancel(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if a, ok := g.alerts[key]; ok {
		a.timer.Stop()
		delete(g.alerts, key)
	}
	return nil
}

// CancelAllWithPrefix removes every alert whose key starts with prefix.
func (g *TelegramGateway) CancelAllWithPrefix(prefix string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, a := range g.alerts {
		if strings.HasPrefix(key, prefix) {
			a.timer.Stop()
			delete(g.alerts, key)
		}
	}
	return nil
}

// ListScheduled reports the currently pending alerts.
func (g *TelegramGateway) ListScheduled() ([]gateway.ScheduledAlert, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]gateway.ScheduledAlert, 0, len(g.alerts))
	for key, a := range g.alerts {
		out = append(out, gateway.ScheduledAlert{Key: key, FireAt: a.fireAt, Payload: a.payload})
	}
	return out, nil
}

// Stop cancels every pending timer. Called on shutdown; pending alerts are
// rebuilt by the startup reconciliation pass on the next run.
func (g *TelegramGateway) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, a := range g.alerts {
		a.timer.Stop()
		delete(g.alerts, key)
	}
}

func (g *TelegramGateway) fire(key string) {
	g.mu.Lock()
	a, ok := g.alerts[key]
	if ok {
		delete(g.alerts, key)
	}
	g.mu.Unlock()
	if !ok {
		return // cancelled between timer expiry and delivery
	}

	text := a.payload.Title
	if a.payload.Body != "" {
		text = a.payload.Title + "\n" + a.payload.Body
	}
	if err := g.sender.SendMessage(g.chatID, text, &telebot.SendOptions{ParseMode: telebot.ModeDefault}); err != nil {
		g.logger.Errorf("Failed to deliver alert %s: %v", key, err)
		return
	}
	g.logger.Infof("Delivered alert %s", key)
}
