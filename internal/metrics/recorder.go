// Package metrics accumulates counters and timings for one imagegen run and
// emits them as a single structured log event when the run ends. stdout is
// reserved for result URLs and paths, so metrics always go through the logger.
package metrics

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Unit qualifies a metric value.
type Unit string

// Metric units.
const (
	UnitMilliseconds Unit = "ms"
	UnitCount        Unit = "count"
	UnitBytes        Unit = "bytes"
	UnitNone         Unit = "none"
)

type metric struct {
	value float64
	unit  Unit
}

// Recorder accumulates dimensions and metrics for a single flush.
// It is NOT safe for concurrent use; create one per run.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	metrics    map[string]metric
}

// New creates a Recorder whose event is tagged with namespace.
func New(namespace string) *Recorder {
	return &Recorder{
		namespace:  namespace,
		dimensions: make(map[string]string),
		metrics:    make(map[string]metric),
	}
}

// Dimension adds a key-value pair describing the run (template, outcome).
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric sets a named value, replacing any previous one.
func (r *Recorder) Metric(name string, value float64, unit Unit) *Recorder {
	r.metrics[name] = metric{value: value, unit: unit}
	return r
}

// Add increments a named value. The unit of the first Add wins.
func (r *Recorder) Add(name string, delta float64, unit Unit) *Recorder {
	m, ok := r.metrics[name]
	if !ok {
		m.unit = unit
	}
	m.value += delta
	r.metrics[name] = m
	return r
}

// Count increments a count metric by one.
func (r *Recorder) Count(name string) *Recorder {
	return r.Add(name, 1, UnitCount)
}

// Duration records d in milliseconds.
func (r *Recorder) Duration(name string, d time.Duration) *Recorder {
	return r.Metric(name, float64(d.Milliseconds()), UnitMilliseconds)
}

// Value returns the current value of a metric.
func (r *Recorder) Value(name string) (float64, bool) {
	m, ok := r.metrics[name]
	return m.value, ok
}

// Flush writes the accumulated metrics to logger as one info event. Metric
// keys are suffixed with their unit. Nothing is written when no metric was
// recorded.
func (r *Recorder) Flush(logger zerolog.Logger) {
	if len(r.metrics) == 0 {
		return
	}

	dims := zerolog.Dict()
	for _, k := range sortedKeys(r.dimensions) {
		dims.Str(k, r.dimensions[k])
	}

	values := zerolog.Dict()
	for _, k := range sortedKeys(r.metrics) {
		m := r.metrics[k]
		key := k
		if m.unit != UnitNone {
			key += "_" + string(m.unit)
		}
		values.Float64(key, m.value)
	}

	logger.Info().
		Str("namespace", r.namespace).
		Dict("dimensions", dims).
		Dict("metrics", values).
		Msg("Run metrics")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
