package emergency

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rx3lixir/amparo/internal/backend"
)

// API is the slice of the backend contract the escalation flow needs.
type API interface {
	TriggerEmergency(ctx context.Context, req backend.TriggerEmergencyRequest) error
	EmergencyStatus(ctx context.Context, deviceID string) (*backend.EmergencyStatusResponse, error)
}

// Dialer places an outgoing call to the emergency contact.
type Dialer interface {
	Dial(phone string) error
}

// Controller drives an escalation: trigger the emergency event, then
// poll status on a fixed interval until the backend reports resolution,
// dialing the contact on every tick while it stays active. At most one
// poll loop runs at a time.
type Controller struct {
	api      API
	dialer   Dialer
	deviceID string
	protocol string
	interval time.Duration
	log      *log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	current *backend.EmergencyStatusResponse
}

func NewController(api API, dialer Dialer, deviceID, protocol string, interval time.Duration, logger *log.Logger) *Controller {
	return &Controller{
		api:      api,
		dialer:   dialer,
		deviceID: deviceID,
		protocol: protocol,
		interval: interval,
		log:      logger,
	}
}

// TriggerManual submits a user-initiated emergency event and starts
// polling for its resolution.
func (c *Controller) TriggerManual(ctx context.Context) error {
	req := backend.TriggerEmergencyRequest{
		DeviceID: c.deviceID,
		Protocol: c.protocol,
		Reason:   "Boton SOS presionado",
	}

	if err := c.api.TriggerEmergency(ctx, req); err != nil {
		c.log.Error("Failed to trigger emergency", "error", err)
		return err
	}

	c.log.Warn("Emergency triggered", "protocol", c.protocol)
	c.StartPolling()
	return nil
}

// StartPolling begins the escalation poll loop. A loop already running
// is cancelled first, so starting from chat while a manual escalation
// is active never doubles the polling.
func (c *Controller) StartPolling() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	go c.poll(ctx)
}

// Cancel halts polling and clears the local emergency state. The
// backend is not told: cancellation is purely client-side suppression.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.current = nil
}

// Close tears the controller down, stopping any active loop.
func (c *Controller) Close() {
	c.Cancel()
}

// Status returns the last polled emergency status, or nil when no
// escalation is active.
func (c *Controller) Status() *backend.EmergencyStatusResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}
	snapshot := *c.current
	return &snapshot
}

// Active reports whether an escalation is currently in progress.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Controller) poll(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if c.tick(ctx) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick fetches the current status once. Resolution stops the loop and
// clears local state; an active status with a contact phone places a
// call. Poll failures are logged and the loop keeps going.
func (c *Controller) tick(ctx context.Context) (stop bool) {
	status, err := c.api.EmergencyStatus(ctx, c.deviceID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		c.log.Error("Emergency status poll failed", "error", err)
		return false
	}

	c.mu.Lock()
	c.current = status
	c.mu.Unlock()

	if status.Status == backend.EmergencyStatusOK {
		c.log.Info("Emergency resolved, stopping escalation")
		c.Cancel()
		return true
	}

	if status.ContactPhone != "" {
		if err := c.dialer.Dial(status.ContactPhone); err != nil {
			c.log.Error("Failed to place emergency call", "phone", status.ContactPhone, "error", err)
		} else {
			c.log.Warn("Emergency call placed", "contact", status.ContactName, "phone", status.ContactPhone)
		}
	}

	return false
}
