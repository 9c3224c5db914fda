// Package promhook exports cache events as Prometheus counters.
package promhook

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cacheable"
)

const namespace = "cacheable"

// Hooks counts lookups by op and outcome, store errors by op and action,
// self-heals by reason, and tracks the current version per namespace.
type Hooks struct {
	lookups     *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
	selfHeals   *prometheus.CounterVec
	uncacheable *prometheus.CounterVec
	versionErrs *prometheus.CounterVec
	version     *prometheus.GaugeVec
}

var _ cacheable.Hooks = (*Hooks)(nil)

// New registers the collectors on reg. A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &Hooks{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Decorated calls by operation and the layer that served them.",
		}, []string{"op", "result"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Shared store failures absorbed by the cache.",
		}, []string{"op", "action"}),
		selfHeals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "self_heals_total",
			Help:      "Stored entries deleted because they could not be decoded.",
		}, []string{"reason"}),
		uncacheable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uncacheable_total",
			Help:      "Calls that ran uncached.",
		}, []string{"op", "reason"}),
		versionErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_errors_total",
			Help:      "Version counter read, seed or bump failures.",
		}, []string{"ns"}),
		version: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "version",
			Help:      "Last version this process bumped to.",
		}, []string{"ns"}),
	}
	for _, c := range []prometheus.Collector{h.lookups, h.storeErrors, h.selfHeals, h.uncacheable, h.versionErrs, h.version} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(reg prometheus.Registerer) *Hooks {
	h, err := New(reg)
	if err != nil {
		panic(err)
	}
	return h
}

func (h *Hooks) MemoHit(op string)  { h.lookups.WithLabelValues(op, "memo").Inc() }
func (h *Hooks) StoreHit(op string) { h.lookups.WithLabelValues(op, "store").Inc() }
func (h *Hooks) Miss(op string)     { h.lookups.WithLabelValues(op, "miss").Inc() }

func (h *Hooks) StoreError(op, action string, _ error) {
	h.storeErrors.WithLabelValues(op, action).Inc()
}

// SelfHeal drops the key; it is unbounded and would explode cardinality.
func (h *Hooks) SelfHeal(_, reason string) { h.selfHeals.WithLabelValues(reason).Inc() }

func (h *Hooks) VersionBumped(ns string, v uint64) {
	h.version.WithLabelValues(ns).Set(float64(v))
}

func (h *Hooks) VersionError(ns string, _ error) { h.versionErrs.WithLabelValues(ns).Inc() }

func (h *Hooks) Uncacheable(op, reason string) { h.uncacheable.WithLabelValues(op, reason).Inc() }
