package registry

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Raimguhinov/linkal/pkg/logger"
	"github.com/Raimguhinov/linkal/pkg/postgres"
)

// NewFromURL loads the registry from a file path, a file:// URL or a
// postgres:// connection string.
func NewFromURL(ctx context.Context, l *logger.Logger, registryURL string, opts ...postgres.Option) (*Registry, error) {
	u, err := url.Parse(registryURL)
	if err != nil {
		return nil, fmt.Errorf("registry - NewFromURL - url.Parse: %w", err)
	}

	switch u.Scheme {
	case "":
		return LoadFile(registryURL)
	case "file":
		name := u.Path
		if u.Host != "" {
			name = u.Host + u.Path
		}
		return LoadFile(name)
	case "postgres", "postgresql":
		pg, err := postgres.New(ctx, l, registryURL, opts...)
		if err != nil {
			return nil, fmt.Errorf("registry - NewFromURL - postgres.New: %w", err)
		}
		defer pg.Close()

		return LoadPostgres(ctx, pg.Pool)
	default:
		return nil, fmt.Errorf("no registry provider found for %s:// URL", u.Scheme)
	}
}
