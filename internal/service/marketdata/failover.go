package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"CryptoSignal/internal/domain/models"
	domrepo "CryptoSignal/internal/domain/repository"
	"CryptoSignal/pkg/logger"
)

var ErrNoSources = errors.New("marketdata: no sources configured")

// BarSink receives bars fetched from upstream, typically the ClickHouse bar store.
type BarSink interface {
	StoreBars(ctx context.Context, symbol, interval string, bars []models.Bar) error
}

// FailoverSource tries sources in order and returns the first non-empty result.
type FailoverSource struct {
	sources []domrepo.BarSource
	sink    BarSink
	log     *logger.Logger
}

func NewFailover(log *logger.Logger, sources ...domrepo.BarSource) *FailoverSource {
	if log == nil {
		log = logger.NewNop()
	}
	var live []domrepo.BarSource
	for _, s := range sources {
		if s != nil {
			live = append(live, s)
		}
	}
	return &FailoverSource{sources: live, log: log}
}

// WithSink archives every successful upstream fetch.
func (f *FailoverSource) WithSink(sink BarSink) *FailoverSource {
	f.sink = sink
	return f
}

func (f *FailoverSource) Name() string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = s.Name()
	}
	return "failover(" + strings.Join(names, ",") + ")"
}

// Fetch returns empty with nil error only when every source reported no data.
func (f *FailoverSource) Fetch(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error) {
	if len(f.sources) == 0 {
		return nil, ErrNoSources
	}
	var errs []error
	for _, src := range f.sources {
		bars, err := src.Fetch(ctx, symbol, interval, limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.log.Warn("bar source failed, trying next",
				logger.String("source", src.Name()),
				logger.String("symbol", symbol),
				logger.String("interval", interval),
				logger.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		if len(bars) == 0 {
			continue
		}
		f.archive(ctx, src, symbol, interval, bars)
		return bars, nil
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

func (f *FailoverSource) archive(ctx context.Context, src domrepo.BarSource, symbol, interval string, bars []models.Bar) {
	if f.sink == nil {
		return
	}
	if s, ok := f.sink.(domrepo.BarSource); ok && s.Name() == src.Name() {
		return
	}
	if err := f.sink.StoreBars(ctx, symbol, interval, bars); err != nil {
		f.log.Warn("archive bars failed",
			logger.String("symbol", symbol),
			logger.String("interval", interval),
			logger.Error(err),
		)
	}
}
