package cmd

import (
	"fmt"
	"log/slog"

	"github.com/convobase/convobase/pkg/realtime"
)

// NewRealtimePublisher builds the realtime publisher. Without a Redis
// URL the in-memory recorder is used, which keeps single-process
// deployments working with no extra infrastructure.
func NewRealtimePublisher(redisURL string, logger *slog.Logger) realtime.Publisher {
	if redisURL == "" {
		return realtime.NewMemoryPublisher()
	}

	publisher, err := realtime.NewRedisPublisherFromURL(redisURL, logger)
	if err != nil {
		panic(fmt.Errorf("failed to connect realtime publisher: %w", err))
	}

	return publisher
}
