package ntpsync

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// statistic holds the client metrics. A nil *statistic records nothing.
type statistic struct {
	registry *prometheus.Registry

	sampleCounter *prometheus.CounterVec
	hostCounter   *prometheus.CounterVec
	delayGauge    prometheus.Gauge
	offsetGauge   prometheus.Gauge
	lastSyncGauge prometheus.Gauge
}

func newStatistic() *statistic {
	reg := prometheus.NewRegistry()

	sampleCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ntp",
		Subsystem: "client",
		Name:      "samples_total",
		Help:      "The total number of ntp queries by outcome",
	}, []string{"result"})
	reg.MustRegister(sampleCounter)

	hostCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ntp",
		Subsystem: "client",
		Name:      "hosts_total",
		Help:      "The total number of servers tried by outcome",
	}, []string{"result"})
	reg.MustRegister(hostCounter)

	delayGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ntp",
		Subsystem: "stat",
		Name:      "delay_sec",
		Help:      "The mean round trip delay of the last applied sync",
	})
	reg.MustRegister(delayGauge)

	offsetGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ntp",
		Subsystem: "stat",
		Name:      "offset_sec",
		Help:      "The step applied to the local clock by the last sync",
	})
	reg.MustRegister(offsetGauge)

	lastSyncGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ntp",
		Subsystem: "stat",
		Name:      "last_sync_timestamp_seconds",
		Help:      "The corrected unix time written by the last sync",
	})
	reg.MustRegister(lastSyncGauge)

	return &statistic{
		registry:      reg,
		sampleCounter: sampleCounter,
		hostCounter:   hostCounter,
		delayGauge:    delayGauge,
		offsetGauge:   offsetGauge,
		lastSyncGauge: lastSyncGauge,
	}
}

func (s *statistic) observeSample(sample SyncSample) {
	if s == nil {
		return
	}
	s.sampleCounter.WithLabelValues(sample.Outcome().label()).Inc()
}

func (s *statistic) observeHost(kind ErrorKind) {
	if s == nil {
		return
	}
	s.hostCounter.WithLabelValues(kind.label()).Inc()
}

func (s *statistic) observeSync(r AggregateResult, offset float64) {
	if s == nil {
		return
	}
	s.hostCounter.WithLabelValues(KindNone.label()).Inc()
	s.delayGauge.Set(r.Delay)
	s.offsetGauge.Set(offset)
	s.lastSyncGauge.Set(r.CorrectedTime)
}

func (s *statistic) handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func (s *statistic) writeTextfile(path string) error {
	return prometheus.WriteToTextfile(path, s.registry)
}
