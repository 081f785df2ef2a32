package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/gameport/arena/metrics"
)

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

// Bridge re-delivers cross-process writes into the local ChangeBus. It
// LISTENs on the notify channel the PostgresStore publishes to; on a
// notification from another process it re-reads the path and publishes the
// fresh snapshot locally. Notifications carrying this process's own origin
// id are skipped — the writer already published at write time, the way a
// browser tab never receives its own storage event.
type Bridge struct {
	listener *pq.Listener
	keyed    KeyedStore
	bus      *ChangeBus
	channel  string
	origin   string
	logger   *slog.Logger
}

func NewBridge(dsn, channel, origin string, keyed KeyedStore, bus *ChangeBus, logger *slog.Logger) *Bridge {
	listener := pq.NewListener(dsn, listenerMinReconnect, listenerMaxReconnect,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				logger.Error("notify listener event", slog.Int("event", int(event)), slog.Any("error", err))
			}
		})

	return &Bridge{
		listener: listener,
		keyed:    keyed,
		bus:      bus,
		channel:  channel,
		origin:   origin,
		logger:   logger,
	}
}

// Run listens until ctx is cancelled. It blocks and always returns the
// listener close error, if any.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.listener.Listen(b.channel); err != nil {
		return err
	}
	b.logger.Info("notify bridge listening", slog.String("channel", b.channel))

	ping := time.NewTicker(listenerPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return b.listener.Close()

		case notification := <-b.listener.Notify:
			// nil arrives after a connection loss; the listener
			// reconnects on its own.
			if notification == nil {
				continue
			}
			b.handle(ctx, notification.Extra)

		case <-ping.C:
			if err := b.listener.Ping(); err != nil {
				b.logger.Error("notify listener ping failed", slog.Any("error", err))
			}
		}
	}
}

func (b *Bridge) handle(ctx context.Context, extra string) {
	var payload notifyPayload
	if err := json.Unmarshal([]byte(extra), &payload); err != nil {
		b.logger.Error("malformed notify payload", slog.String("payload", extra), slog.Any("error", err))
		return
	}

	if payload.Origin == b.origin {
		metrics.NotifySelfSkips.Inc()
		return
	}

	value, ok, err := b.keyed.Get(ctx, payload.Path)
	if err != nil {
		b.logger.Error("failed to re-read notified path",
			slog.String("path", payload.Path), slog.Any("error", err))
		return
	}

	metrics.NotifyDeliveries.Inc()
	b.bus.Publish(payload.Path, Snapshot{Value: value, Exists: ok})
}
