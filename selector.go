package ntpsync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

type sampler interface {
	Sample(ctx context.Context, host string, attempts int) AggregateResult
}

// Result describes the sync that was applied.
type Result struct {
	Host          string
	CorrectedTime float64
	Delay         float64
	SuccessCount  int
	TotalCount    int
}

// Time returns CorrectedTime as a time.Time.
func (r *Result) Time() time.Time {
	return fromUnixSeconds(r.CorrectedTime)
}

// Synchronizer picks a server, samples it and steps the clock.
type Synchronizer struct {
	pool     []string
	attempts int

	sampler sampler
	cache   *cachingResolver
	clock   ClockApplier
	logger  Logger
	stats   *statistic
	now     func() time.Time
}

// New builds a Synchronizer from a validated config. The system clock is
// used unless cfg.DryRun is set.
func New(cfg *Config, logger Logger) (*Synchronizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = loggerOrDefault(logger)

	var r resolver = systemResolver{r: net.DefaultResolver}
	if cfg.Nameserver != "" {
		r = newNameserverResolver(cfg.Nameserver, cfg.Timeout)
	}
	var cache *cachingResolver
	if cfg.Interval > 0 {
		cache = newCachingResolver(r, addrCacheTTL)
		r = cache
	}

	var clock ClockApplier = SystemClock{}
	if cfg.DryRun {
		clock = DryRunClock{Logger: logger}
	}

	stats := newStatistic()
	pool := make([]string, len(cfg.Pool))
	copy(pool, cfg.Pool)

	return &Synchronizer{
		pool:     pool,
		attempts: cfg.Samples,
		sampler:  newSampler(cfg, r, logger, stats),
		cache:    cache,
		clock:    clock,
		logger:   logger,
		stats:    stats,
		now:      time.Now,
	}, nil
}

// Synchronize tries custom first, when given, then every pool server in
// order. It stops at the first server whose time was applied to the clock.
// A server whose time could not be applied does not stop the search.
func (s *Synchronizer) Synchronize(ctx context.Context, custom string) (*Result, error) {
	var lastErr error

	if custom != "" {
		if err := ValidHostname(custom); err != nil {
			s.logger.Warnf("skip custom server: %s", err)
			s.stats.observeHost(KindInvalidHostnameSyntax)
			lastErr = err
		} else {
			s.logger.Infof("phase 1: custom server %s", custom)
			res, err := s.try(ctx, custom)
			if err == nil {
				return res, nil
			}
			lastErr = err
			s.logger.Info("falling back to built-in servers")
		}
	}

	s.logger.Infof("phase 2: built-in pool (%d servers)", len(s.pool))
	for _, host := range s.pool {
		res, err := s.try(ctx, host)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		return nil, ErrServersExhausted
	}
	return nil, fmt.Errorf("%w, last error: %w", ErrServersExhausted, lastErr)
}

func (s *Synchronizer) try(ctx context.Context, host string) (*Result, error) {
	r := s.sampler.Sample(ctx, host, s.attempts)
	if !r.OK() {
		err := r.Err()
		if err == nil {
			err = fmt.Errorf("%s: %w", host, errNoSample)
		}
		if s.cache != nil {
			s.cache.forget(host)
		}
		s.stats.observeHost(KindOf(err))
		return nil, err
	}

	offset := r.CorrectedTime - unixSeconds(s.now())
	if err := s.clock.Apply(r.CorrectedTime); err != nil {
		err = withHost(clockError(err), host)
		s.logger.Warnf("set clock: %s", err)
		s.stats.observeHost(KindOf(err))
		return nil, err
	}

	s.stats.observeSync(r, offset)
	s.logger.Infof("clock set from %s to %s (offset %s)",
		host, fromUnixSeconds(r.CorrectedTime).UTC().Format(time.RFC3339Nano), secondToDuration(offset))
	return &Result{
		Host:          host,
		CorrectedTime: r.CorrectedTime,
		Delay:         r.Delay,
		SuccessCount:  r.SuccessCount,
		TotalCount:    r.TotalCount,
	}, nil
}

// Run calls Synchronize every interval until ctx is done. Failed rounds
// are logged and retried at the next tick.
func (s *Synchronizer) Run(ctx context.Context, custom string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s", interval)
	}
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		_, err := s.Synchronize(ctx, custom)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warnf("sync err: %s", err)
		}
		timer.Reset(interval)
	}
}

// MetricsHandler serves the prometheus metrics of s.
func (s *Synchronizer) MetricsHandler() http.Handler {
	return s.stats.handler()
}

// WriteMetrics dumps the metrics in the node_exporter textfile format.
func (s *Synchronizer) WriteMetrics(path string) error {
	return s.stats.writeTextfile(path)
}
