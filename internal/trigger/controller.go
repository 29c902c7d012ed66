// internal/trigger/controller.go
package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vitalsd/internal/storage"
	"vitalsd/internal/vitals"
)

// State of the save machine. The machine runs for the process lifetime;
// there is no terminal state.
type State int

const (
	StateIdle State = iota
	StateSaving
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateSaving:
		return "SAVING"
	case StateCooldown:
		return "COOLDOWN"
	default:
		return "IDLE"
	}
}

// Config for a Controller. OnEvent and OnSummary are optional hooks
// invoked after a successful save; both run on the triggering goroutine.
type Config struct {
	Cooldown  time.Duration // manual-trigger debounce window
	Interval  time.Duration // auto-save period
	OnEvent   func(vitals.SaveEvent, vitals.Reading)
	OnSummary func(vitals.DailySummary)
}

// Controller decides when the current reading is persisted. It is the
// single point of mutual exclusion over "am I currently saving": manual
// triggers are debounced through the IDLE/SAVING/COOLDOWN states, while
// the interval timer saves regardless of manual state.
type Controller struct {
	store storage.Store
	log   *zap.Logger
	cfg   Config

	mu            sync.Mutex
	state         State
	latest        *vitals.Reading
	cooldownTimer *time.Timer
}

func New(store storage.Store, logger *zap.Logger, cfg Config) *Controller {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 3 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	return &Controller{store: store, log: logger, cfg: cfg}
}

// Observe records the current latest reading. Called once per tick.
func (c *Controller) Observe(r vitals.Reading) {
	c.mu.Lock()
	c.latest = &r
	c.mu.Unlock()
}

// State reports the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TriggerManual handles a button press or POST /save. A trigger arriving
// while SAVING or within the cooldown window is ignored, not queued.
// Returns true when the save was attempted.
func (c *Controller) TriggerManual() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		c.log.Debug("manual save ignored", zap.Stringer("state", c.state))
		return false
	}
	if c.latest == nil {
		c.log.Warn("manual save ignored: no reading observed yet")
		return false
	}

	c.state = StateSaving
	if err := c.save(*c.latest, vitals.TriggerManual); err != nil {
		// Save dropped, no cooldown: the next press may succeed.
		c.log.Error("manual save failed", zap.Error(err))
		c.state = StateIdle
		return false
	}

	c.state = StateCooldown
	c.cooldownTimer = time.AfterFunc(c.cfg.Cooldown, c.endCooldown)
	return true
}

// TriggerInterval persists the current latest reading and recomputes the
// summary over the preceding interval. Fired by the auto-save ticker; it
// does not consult or enter the cooldown state.
func (c *Controller) TriggerInterval() {
	c.triggerTimed(vitals.TriggerInterval)
}

// TriggerStartup persists the first reading when the process comes up.
func (c *Controller) TriggerStartup() {
	c.triggerTimed(vitals.TriggerStartup)
}

func (c *Controller) triggerTimed(trig vitals.Trigger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.latest == nil {
		c.log.Debug("timed save skipped: no reading observed yet", zap.String("trigger", string(trig)))
		return
	}

	prev := c.state
	c.state = StateSaving
	if err := c.save(*c.latest, trig); err != nil {
		c.log.Error("timed save failed", zap.String("trigger", string(trig)), zap.Error(err))
		c.state = StateIdle
		return
	}
	// A cooldown that was running when the timer fired keeps running.
	c.state = prev

	if trig == vitals.TriggerInterval && c.cfg.OnSummary != nil {
		now := time.Now()
		summary, err := c.store.DailySummary(context.Background(), now.Add(-c.cfg.Interval), now)
		if err != nil {
			c.log.Error("interval summary failed", zap.Error(err))
			return
		}
		c.cfg.OnSummary(summary)
	}
}

// save appends the reading and records the audit event. Caller holds the
// lock. A failed event insert is logged but does not undo the save.
func (c *Controller) save(r vitals.Reading, trig vitals.Trigger) error {
	id, err := c.store.Append(context.Background(), r)
	if err != nil {
		return err
	}

	ev := vitals.SaveEvent{
		ID:        uuid.NewString(),
		Trigger:   trig,
		ReadingID: id,
		CreatedAt: time.Now(),
	}
	if err := c.store.AppendEvent(context.Background(), ev); err != nil {
		c.log.Error("save event not recorded", zap.Error(err))
	}
	c.log.Info("reading saved",
		zap.String("trigger", string(trig)),
		zap.Int64("reading_id", id),
		zap.Int("heart_rate", r.HeartRate),
		zap.Int("spo2", r.SpO2),
		zap.String("status", string(r.Status)))

	if c.cfg.OnEvent != nil {
		c.cfg.OnEvent(ev, r)
	}
	return nil
}

func (c *Controller) endCooldown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCooldown {
		c.state = StateIdle
	}
}

// Run owns the auto-save ticker. Blocks until ctx is cancelled, then
// stops all timers.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			if c.cooldownTimer != nil {
				c.cooldownTimer.Stop()
			}
			c.mu.Unlock()
			return
		case <-ticker.C:
			c.TriggerInterval()
		}
	}
}
