package main

import (
	"context"
	"log/slog"

	"github.com/example/sparkboard/internal/changefeed"
	"github.com/example/sparkboard/internal/config"
)

// startChangeFeed returns the publisher services write to. Without a broker the
// hub is the publisher. With one, events go to the exchange and a relay feeds
// them back into the hub, so every instance sees every write.
func startChangeFeed(ctx context.Context, cfg config.Config, hub *changefeed.Hub, logger *slog.Logger) (changefeed.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		return hub, func() {}, nil
	}

	publisher, err := changefeed.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		return nil, nil, err
	}
	relay, err := changefeed.NewRelay(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		_ = publisher.Close()
		return nil, nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := relay.Run(ctx, hub); err != nil && ctx.Err() == nil {
			logger.ErrorContext(ctx, "change feed relay stopped", "error", err)
		}
	}()

	stop := func() {
		if err := relay.Close(); err != nil {
			logger.Warn("failed to close change feed relay", "error", err)
		}
		<-done
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close change feed publisher", "error", err)
		}
	}
	logger.InfoContext(ctx, "change feed connected to broker", "exchange", cfg.AMQPExchange)
	return publisher, stop, nil
}
