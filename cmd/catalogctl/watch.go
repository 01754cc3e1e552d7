package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/abgdnv/gocatalog/pkg/messaging/events"
	natsclient "github.com/abgdnv/gocatalog/pkg/nats"
)

// watch prints product events from JetStream until ctx is cancelled.
func watch(ctx context.Context, cfg *Config, stdout io.Writer, mLogger *slog.Logger) error {
	if !cfg.NATS.Enabled {
		return errors.New("watch needs NATS, set CATALOGCTL_NATS_ENABLED=true and CATALOGCTL_NATS_URL")
	}
	nc, err := natsclient.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return err
	}
	defer nc.Close()
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Watching %s on stream %s\n", cfg.Subscriber.Subject, cfg.Subscriber.Stream)
	err = natsclient.Subscribe(ctx, js, cfg.Subscriber, eventPrinter(stdout), mLogger)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// eventPrinter renders one line per event. Workers share stdout, so writes are serialised.
func eventPrinter(w io.Writer) natsclient.EventHandler {
	var mu sync.Mutex
	return func(_ context.Context, event events.ProductChangedEvent) error {
		mu.Lock()
		defer mu.Unlock()
		line := fmt.Sprintf("%s  %-7s  %s", event.OccurredAt.Format("15:04:05"), event.Kind, event.ProductID)
		if event.Kind != events.KindDeleted {
			line += fmt.Sprintf("  %s  %s  %s", event.Name, strconv.FormatFloat(event.Price, 'f', 2, 64), event.Image)
		}
		_, err := fmt.Fprintln(w, line)
		return err
	}
}
