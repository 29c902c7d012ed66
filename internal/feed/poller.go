// internal/feed/poller.go
package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vitalsd/internal/alerting"
	"vitalsd/internal/storage"
	"vitalsd/internal/vitals"
	"vitalsd/internal/websocket"
)

// Poller bridges the store to the dashboard's live websocket feed. The
// monitor and dashboard processes share nothing but the database, so new
// rows are discovered by polling rather than by a direct channel.
// Delivery is best-effort.
type Poller struct {
	store      storage.Store
	hub        *websocket.Hub
	alerter    *alerting.Alerter
	thresholds vitals.Thresholds
	log        *zap.Logger
	interval   time.Duration

	lastID int64
	primed bool
}

func NewPoller(store storage.Store, hub *websocket.Hub, alerter *alerting.Alerter,
	thresholds vitals.Thresholds, logger *zap.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{
		store:      store,
		hub:        hub,
		alerter:    alerter,
		thresholds: thresholds,
		log:        logger,
		interval:   interval,
	}
}

// Run polls until ctx is cancelled. Connected clients receive history on
// connect, so the poller starts from the current head rather than
// replaying the whole log.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	if !p.primed {
		latest, err := p.store.Latest(ctx)
		if err != nil {
			p.log.Error("prime live feed", zap.Error(err))
			return
		}
		if latest != nil {
			p.lastID = latest.ID
		}
		p.primed = true
		return
	}

	readings, err := p.store.Since(ctx, p.lastID, storage.MaxRecent)
	if err != nil {
		p.log.Error("poll live feed", zap.Error(err))
		return
	}

	for _, r := range readings {
		p.lastID = r.ID
		p.hub.BroadcastReading(r)
		if r.Status == vitals.StatusAlert {
			p.alerter.Process(p.thresholds.AlertFor(r))
		}
	}
}
