package app

import (
	"context"
	"fmt"
	"io"

	"github.com/Raimguhinov/linkal/internal/config"
	"github.com/Raimguhinov/linkal/internal/probe"
	"github.com/Raimguhinov/linkal/pkg/logger"
)

// Check runs CalDAV discovery against every upstream and writes a report to
// w. It fails when at least one calendar is unreachable.
func Check(ctx context.Context, cfg *config.Config, w io.Writer) error {
	l := logger.New(cfg.Log.Level, cfg.App.Env)

	reg, err := loadRegistry(ctx, l, cfg)
	if err != nil {
		return err
	}

	p := probe.New(reg, l,
		probe.Timeout(cfg.Upstream.Timeout),
		probe.MaxParallel(cfg.Upstream.MaxParallel),
		probe.BasicAuth(cfg.Upstream.Username, cfg.Upstream.Password),
	)
	if failed := probe.Report(w, p.Check(ctx)); failed > 0 {
		return fmt.Errorf("app - Check: %d of %d calendars failed", failed, reg.Len())
	}
	return nil
}
