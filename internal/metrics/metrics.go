package metrics

import (
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metric names exposed on /metrics.
const (
	CyclesTotal           = "therawatch_cycles_total"
	FeedFailuresTotal     = "therawatch_feed_failures_total"
	PairsTotal            = "therawatch_pairs_total"
	OracleFailuresTotal   = "therawatch_oracle_failures_total"
	DeliveryFailuresTotal = "therawatch_delivery_failures_total"
	ConnectionsSeen       = "therawatch_connections_seen"
	CooldownEntries       = "therawatch_cooldown_entries"
	LastCycleSeconds      = "therawatch_last_cycle_duration_seconds"
	LastCycleTimestamp    = "therawatch_last_cycle_timestamp_seconds"
)

// ContentType is the exposition format written by WriteTo.
var ContentType = string(expfmt.NewFormat(expfmt.TypeTextPlain))

type series struct {
	labels []*dto.LabelPair
	value  float64
}

type family struct {
	help   string
	typ    dto.MetricType
	series map[string]*series
}

// Metrics is a small in-process registry for the poller's counters and
// gauges. The zero value is not usable; call New. A nil *Metrics
// ignores every update, so components can run without one.
type Metrics struct {
	mu       sync.Mutex
	families map[string]*family
}

func New() *Metrics {
	m := &Metrics{families: make(map[string]*family)}
	m.define(CyclesTotal, "Poll cycles run.", dto.MetricType_COUNTER)
	m.define(FeedFailuresTotal, "Poll cycles that could not read the signature feed.", dto.MetricType_COUNTER)
	m.define(PairsTotal, "Evaluated (connection, destination) pairs by outcome.", dto.MetricType_COUNTER)
	m.define(OracleFailuresTotal, "Route lookups that failed after all attempts.", dto.MetricType_COUNTER)
	m.define(DeliveryFailuresTotal, "Alerts the notification sink rejected.", dto.MetricType_COUNTER)
	m.define(ConnectionsSeen, "Hub connections in the last feed snapshot.", dto.MetricType_GAUGE)
	m.define(CooldownEntries, "Tracked cooldown entries after the last cycle.", dto.MetricType_GAUGE)
	m.define(LastCycleSeconds, "Duration of the last poll cycle.", dto.MetricType_GAUGE)
	m.define(LastCycleTimestamp, "Unix time the last poll cycle started.", dto.MetricType_GAUGE)
	return m
}

func (m *Metrics) define(name, help string, typ dto.MetricType) {
	m.families[name] = &family{help: help, typ: typ, series: make(map[string]*series)}
}

// CycleObservation is what one poll cycle reports.
type CycleObservation struct {
	Start        time.Time
	Duration     time.Duration
	FeedFailed   bool
	Connections  int
	CooldownSize int
	Outcomes     map[string]int
}

// ObserveCycle records one completed cycle.
func (m *Metrics) ObserveCycle(o CycleObservation) {
	if m == nil {
		return
	}
	m.add(CyclesTotal, 1)
	if o.FeedFailed {
		m.add(FeedFailuresTotal, 1)
	} else {
		m.set(ConnectionsSeen, float64(o.Connections))
	}
	for outcome, n := range o.Outcomes {
		m.add(PairsTotal, float64(n), "outcome", outcome)
	}
	m.set(CooldownEntries, float64(o.CooldownSize))
	m.set(LastCycleSeconds, o.Duration.Seconds())
	m.set(LastCycleTimestamp, float64(o.Start.Unix()))
}

func (m *Metrics) OracleFailure() {
	if m == nil {
		return
	}
	m.add(OracleFailuresTotal, 1)
}

func (m *Metrics) DeliveryFailure() {
	if m == nil {
		return
	}
	m.add(DeliveryFailuresTotal, 1)
}

func (m *Metrics) add(name string, v float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seriesFor(name, labels).value += v
}

func (m *Metrics) set(name string, v float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seriesFor(name, labels).value = v
}

// seriesFor must be called with mu held. labels are key, value pairs.
func (m *Metrics) seriesFor(name string, labels []string) *series {
	f := m.families[name]
	key := strings.Join(labels, "\xff")
	s, ok := f.series[key]
	if !ok {
		s = &series{}
		for i := 0; i+1 < len(labels); i += 2 {
			s.labels = append(s.labels, &dto.LabelPair{Name: ptr(labels[i]), Value: ptr(labels[i+1])})
		}
		f.series[key] = s
	}
	return s
}

// Value returns the current value of a series, for tests and /status.
func (m *Metrics) Value(name string, labels ...string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.families[name]
	if !ok {
		return 0
	}
	if s, ok := f.series[strings.Join(labels, "\xff")]; ok {
		return s.value
	}
	return 0
}

// WriteTo renders every family in the Prometheus text format.
func (m *Metrics) WriteTo(w io.Writer) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range m.gather() {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) gather() []*dto.MetricFamily {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.families))
	for name, f := range m.families {
		if len(f.series) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		f := m.families[name]
		mf := &dto.MetricFamily{
			Name: ptr(name),
			Help: ptr(f.help),
			Type: f.typ.Enum(),
		}

		keys := make([]string, 0, len(f.series))
		for k := range f.series {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			s := f.series[k]
			metric := &dto.Metric{Label: s.labels}
			switch f.typ {
			case dto.MetricType_COUNTER:
				metric.Counter = &dto.Counter{Value: ptr(s.value)}
			default:
				metric.Gauge = &dto.Gauge{Value: ptr(s.value)}
			}
			mf.Metric = append(mf.Metric, metric)
		}
		out = append(out, mf)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
