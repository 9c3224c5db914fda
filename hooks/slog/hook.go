// Package sloghook reports cache events through log/slog.
package sloghook

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheable"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery   uint64
	StoreErrorEvery uint64
	// LogHits logs memo/store hits and misses at debug level. Noisy.
	LogHits bool
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr   atomic.Uint64
	storeErrorCtr atomic.Uint64
}

var _ cacheable.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) hit(event, op string) {
	if h.l == nil || !h.opts.LogHits {
		return
	}
	h.l.Debug(event, "op", op)
}

func (h *Hooks) MemoHit(op string)  { h.hit("cacheable.memo_hit", op) }
func (h *Hooks) StoreHit(op string) { h.hit("cacheable.store_hit", op) }
func (h *Hooks) Miss(op string)     { h.hit("cacheable.miss", op) }

func (h *Hooks) StoreError(op, action string, err error) {
	if h.l == nil || !sample(h.opts.StoreErrorEvery, &h.storeErrorCtr) {
		return
	}
	h.l.Warn("cacheable.store_error",
		"op", op,
		"action", action,
		"err", err)
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("cacheable.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) VersionBumped(ns string, v uint64) {
	if h.l == nil {
		return
	}
	h.l.Info("cacheable.version_bumped",
		"ns", ns,
		"version", v)
}

func (h *Hooks) VersionError(ns string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheable.version_error",
		"ns", ns,
		"err", err)
}

func (h *Hooks) Uncacheable(op, reason string) {
	if h.l == nil {
		return
	}
	h.l.Debug("cacheable.uncacheable",
		"op", op,
		"reason", reason)
}
