// internal/infra/notify/memory_gateway.go
package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"healthsched/internal/domain/gateway"
)

// InMemoryGateway is a notification facility that only records its
// schedule. It backs tests and local development runs where no Telegram
// delivery is wanted.
type InMemoryGateway struct {
	mu     sync.Mutex
	alerts map[string]gateway.ScheduledAlert
	denied bool
}

func NewInMemoryGateway() *InMemoryGateway {
	return &InMemoryGateway{alerts: make(map[string]gateway.ScheduledAlert)}
}

// SetDenied simulates the OS notification permission being revoked or
// granted.
func (g *InMemoryGateway) SetDenied(denied bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.denied = denied
}

func (g *InMemoryGateway) Schedule(key string, fireAt time.Time, payload gateway.Payload) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.denied {
		return gateway.ErrSchedulingDenied
	}
	if !fireAt.After(time.Now()) {
		return fmt.Errorf("alert %q: %w", key, gateway.ErrInvalidFireTime)
	}
	g.alerts[key] = gateway.ScheduledAlert{Key: key, FireAt: fireAt, Payload: payload}
	return nil
}

func (g *InMemoryGateway) Cancel(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.alerts, key)
	return nil
}

func (g *InMemoryGateway) CancelAllWithPrefix(prefix string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key := range g.alerts {
		if strings.HasPrefix(key, prefix) {
			delete(g.alerts, key)
		}
	}
	return nil
}

func (g *InMemoryGateway) ListScheduled() ([]gateway.ScheduledAlert, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]gateway.ScheduledAlert, 0, len(g.alerts))
	for _, a := range g.alerts {
		out = append(out, a)
	}
	return out, nil
}
