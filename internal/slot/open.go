package slot

import (
	"context"
	"fmt"
	"strings"

	"github.com/nanogen/studio/config"
	"github.com/nanogen/studio/internal/db"
)

type closer interface {
	Close() error
}

// Open builds the backend named by cfg.Slot.Backend and applies the
// configured quota. The returned func releases backend resources.
func Open(ctx context.Context, cfg config.Config) (Slot, func() error, error) {
	var (
		s   Slot
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Slot.Backend)) {
	case "memory":
		s = NewMemory()
	case "", "file":
		s, err = NewFile(cfg.Slot.Dir)
	case "redis":
		s, err = NewRedis(ctx, cfg.Redis)
	case "postgres":
		conn, openErr := db.Open(ctx, cfg)
		if openErr != nil {
			return nil, nil, fmt.Errorf("open postgres slot: %w", openErr)
		}
		s = NewPostgres(conn)
	case "minio":
		s, err = NewMinio(ctx, cfg.Minio)
	case "gcs":
		s, err = NewGCS(ctx, cfg.GCS)
	default:
		return nil, nil, fmt.Errorf("unknown slot backend %q", cfg.Slot.Backend)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s slot: %w", cfg.Slot.Backend, err)
	}

	release := func() error { return nil }
	if c, ok := s.(closer); ok {
		release = c.Close
	}
	return Limit(s, cfg.Slot.QuotaBytes), release, nil
}
