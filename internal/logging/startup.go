package logging

import (
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunSummary collects how an invocation was configured and emits it as one
// structured event, so a log excerpt shows exactly which template, gateway
// and limits a run used. Secrets are never registered.
type RunSummary struct {
	runID   string
	version string

	request  map[string]string
	config   map[string]string
	features map[string]bool
	limits   map[string]time.Duration
}

// NewRunSummary creates a RunSummary for the given run id.
func NewRunSummary(runID string) *RunSummary {
	return &RunSummary{
		runID:    runID,
		request:  make(map[string]string),
		config:   make(map[string]string),
		features: make(map[string]bool),
		limits:   make(map[string]time.Duration),
	}
}

// Version sets the build version baked into the binary.
func (s *RunSummary) Version(v string) *RunSummary {
	s.version = v
	return s
}

// Request registers a request attribute (template, aspect ratio, prefix).
// Empty values are skipped.
func (s *RunSummary) Request(key, value string) *RunSummary {
	if value != "" {
		s.request[key] = value
	}
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *RunSummary) Config(key, value string) *RunSummary {
	s.config[key] = value
	return s
}

// Feature registers a boolean switch (e.g. "download", "styleReference").
func (s *RunSummary) Feature(name string, enabled bool) *RunSummary {
	s.features[name] = enabled
	return s
}

// Limit registers a duration bound (timeout, poll interval).
func (s *RunSummary) Limit(name string, d time.Duration) *RunSummary {
	s.limits[name] = d
	return s
}

// Log emits a single structured INFO event with everything collected.
func (s *RunSummary) Log() {
	s.event(log.Info()).Msg("Run configured")
}

func (s *RunSummary) event(evt *zerolog.Event) *zerolog.Event {
	run := zerolog.Dict().
		Str("id", s.runID).
		Str("goVersion", runtime.Version())
	if s.version != "" {
		run = run.Str("version", s.version)
	}
	evt = evt.Dict("run", run)

	if len(s.request) > 0 {
		evt = evt.Dict("request", dictFromMap(s.request))
	}
	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}
	if len(s.features) > 0 {
		d := zerolog.Dict()
		for _, k := range sortedKeys(s.features) {
			d = d.Bool(k, s.features[k])
		}
		evt = evt.Dict("features", d)
	}
	if len(s.limits) > 0 {
		d := zerolog.Dict()
		for _, k := range sortedKeys(s.limits) {
			d = d.Dur(k, s.limits[k])
		}
		evt = evt.Dict("limits", d)
	}
	return evt
}

// dictFromMap converts a map[string]string into a zerolog Dict with stable key order.
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for _, k := range sortedKeys(m) {
		d = d.Str(k, m[k])
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
