// Package cmd provides common initialization functions for the
// command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/convobase/convobase/pkg/persistence"
	"github.com/convobase/convobase/pkg/persistence/file"
	"github.com/convobase/convobase/pkg/persistence/postgresql"
)

// NewPersistence builds the persistence layer from the database URL
// scheme: postgres:// connects to PostgreSQL, anything else is treated
// as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to initialize PostgreSQL persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}
