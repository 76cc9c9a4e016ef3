package ntpsync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	DefaultPort    = "123"
	DefaultTimeout = 5 * time.Second

	MinSamples = 1
	MaxSamples = 5

	// large enough for a header with extension fields
	readBufferSize = 1300
)

// SyncSample is the outcome of one request/response exchange.
type SyncSample struct {
	Host          string
	CorrectedTime float64
	Delay         float64
	Err           error
}

// Outcome is KindNone for a usable sample.
func (s SyncSample) Outcome() ErrorKind {
	return KindOf(s.Err)
}

// AggregateResult summarises the samples taken from one host. Only
// successful samples contribute to CorrectedTime and Delay.
type AggregateResult struct {
	Host          string
	CorrectedTime float64
	Delay         float64
	SuccessCount  int
	TotalCount    int
	Samples       []SyncSample

	err error
}

// OK reports whether at least one sample succeeded.
func (r AggregateResult) OK() bool {
	return r.SuccessCount > 0
}

// Err is nil when OK, otherwise it wraps the last sample failure.
func (r AggregateResult) Err() error {
	return r.err
}

func aggregate(host string, samples []SyncSample) AggregateResult {
	r := AggregateResult{
		Host:       host,
		TotalCount: len(samples),
		Samples:    samples,
	}

	var (
		sumTime, sumDelay float64
		last              error
	)
	for _, s := range samples {
		if s.Err != nil {
			last = s.Err
			continue
		}
		sumTime += s.CorrectedTime
		sumDelay += s.Delay
		r.SuccessCount++
	}

	if r.SuccessCount == 0 {
		if last == nil {
			r.err = fmt.Errorf("%s: %w", host, errNoSample)
		} else {
			r.err = fmt.Errorf("%w (0/%d): %w", errNoSample, r.TotalCount, last)
		}
		return r
	}
	r.CorrectedTime = sumTime / float64(r.SuccessCount)
	r.Delay = sumDelay / float64(r.SuccessCount)
	return r
}

type dependencies struct {
	Resolve func(ctx context.Context, host string) (net.IP, error)
	Dial    func(ctx context.Context, network, address string) (net.Conn, error)
	Now     func() time.Time
	Query   func(ctx context.Context, host string) SyncSample
}

// Sampler queries a single host a fixed number of times.
type Sampler struct {
	Port    string
	Timeout time.Duration

	logger Logger
	stats  *statistic
	deps   dependencies
}

func newSampler(cfg *Config, r resolver, logger Logger, stats *statistic) *Sampler {
	s := &Sampler{
		Port:    cfg.Port,
		Timeout: cfg.Timeout,
		logger:  loggerOrDefault(logger),
		stats:   stats,
	}
	if s.Port == "" {
		s.Port = DefaultPort
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	d := &net.Dialer{}
	s.deps = dependencies{
		Resolve: r.lookup,
		Dial:    d.DialContext,
		Now:     time.Now,
		Query:   s.query,
	}
	return s
}

// Sample runs attempts queries against host one after the other and
// averages the successful ones. attempts is clamped to [1, 5].
func (s *Sampler) Sample(ctx context.Context, host string, attempts int) AggregateResult {
	if attempts < MinSamples {
		attempts = MinSamples
	}
	if attempts > MaxSamples {
		attempts = MaxSamples
	}

	s.logger.Infof("syncing %s (%d samples)", host, attempts)
	samples := make([]SyncSample, 0, attempts)
	for i := 0; i < attempts; i++ {
		sample := s.deps.Query(ctx, host)
		s.stats.observeSample(sample)
		if sample.Err != nil {
			s.logger.Warnf("  sample %d/%d: %s", i+1, attempts, sample.Err)
		} else {
			s.logger.Infof("  sample %d/%d: delay %.2f ms", i+1, attempts, sample.Delay*1e3)
		}
		samples = append(samples, sample)
	}

	r := aggregate(host, samples)
	if r.OK() {
		s.logger.Infof("%s: mean delay %.2f ms, %d/%d samples ok",
			host, r.Delay*1e3, r.SuccessCount, r.TotalCount)
	} else {
		s.logger.Warnf("%s: all samples failed", host)
	}
	return r
}

// query performs one exchange on its own socket.
func (s *Sampler) query(ctx context.Context, host string) (sample SyncSample) {
	sample.Host = host

	ip, err := s.deps.Resolve(ctx, host)
	if err != nil {
		sample.Err = newError(KindDNSResolutionFailed, host, err)
		return
	}

	conn, err := s.deps.Dial(ctx, "udp4", net.JoinHostPort(ip.String(), s.Port))
	if err != nil {
		sample.Err = newError(KindSocketCreateFailed, host, err)
		return
	}
	defer conn.Close()

	deadline := time.Now().Add(s.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err = conn.SetDeadline(deadline); err != nil {
		sample.Err = newError(KindSocketCreateFailed, host, err)
		return
	}

	t1 := unixSeconds(s.deps.Now())
	sent := TimestampFromUnix(t1)
	if _, err = conn.Write(EncodeRequest(sent)); err != nil {
		sample.Err = newError(KindSendFailed, host, err)
		return
	}

	buf := make([]byte, readBufferSize)
	n, err := conn.Read(buf)
	t4 := unixSeconds(s.deps.Now())
	if err != nil {
		sample.Err = newError(KindReceiveTimeout, host, err)
		return
	}

	p, err := DecodeResponse(buf[:n])
	if err != nil {
		sample.Err = withHost(err, host)
		return
	}
	if err = Validate(p, sent); err != nil {
		sample.Err = withHost(err, host)
		return
	}

	sample.CorrectedTime, sample.Delay = Estimate(t1, p.Receive.Unix(), p.Transmit.Unix(), t4)
	if sample.Delay < 0 {
		s.logger.Debugf("%s got neg rtt:%s", host, secondToDuration(sample.Delay))
	}
	return
}

func withHost(err error, host string) error {
	var e *Error
	if errors.As(err, &e) && e.Host == "" {
		e.Host = host
	}
	return err
}
