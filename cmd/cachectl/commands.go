package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/unkn0wn-root/cacheable"
	"github.com/unkn0wn-root/cacheable/cmd/cachectl/internal/config"
	"github.com/unkn0wn-root/cacheable/genstore"
	"github.com/unkn0wn-root/cacheable/i18n"
	"github.com/unkn0wn-root/cacheable/internal/wire"
	zaplog "github.com/unkn0wn-root/cacheable/log/zap"
	pr "github.com/unkn0wn-root/cacheable/provider"
	"github.com/unkn0wn-root/cacheable/provider/memcache"
	"github.com/unkn0wn-root/cacheable/provider/otter"
	"github.com/unkn0wn-root/cacheable/provider/redis"
)

const envKey = "env"

type env struct {
	cfg      *config.Config
	log      *zap.Logger
	cache    *cacheable.Cache
	provider pr.Provider
	policies map[string]cacheable.Policy
}

// targetFlags returns fresh flag values per command; cli stores parsed
// values on the flag structs.
func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "type",
			Aliases:  []string{"t"},
			Usage:    "qualified type name, e.g. github.com/acme/shop.Widget",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "id",
			Usage: "instance identity; omit for a type-scope operation",
		},
		&cli.TimestampFlag{
			Name:   "modified",
			Usage:  "instance last-modified time (RFC3339)",
			Layout: time.RFC3339Nano,
		},
		&cli.BoolFlag{
			Name:  "include-locale",
			Usage: "append the locale to the key",
		},
		&cli.BoolFlag{
			Name:  "include-currency",
			Usage: "append the currency to the key",
		},
		&cli.StringFlag{
			Name:  "locale",
			Usage: "locale to use instead of the configured one",
		},
		&cli.StringFlag{
			Name:  "currency",
			Usage: "ISO 4217 currency to use instead of the configured one",
		},
	}
}

func setup(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}
	applyOverrides(cctx, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	e := &env{cfg: cfg, log: log}
	if cfg.Policies != "" {
		if e.policies, err = loadPolicies(cfg.Policies); err != nil {
			return err
		}
	}

	var gs genstore.GenStore
	switch cfg.Store.Kind {
	case config.StoreRedis:
		rp, err := redis.NewFromURL(cfg.Store.RedisURL, cfg.Store.Prefix)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		e.provider = rp
		// Lua seeding keeps init safe against concurrent bumps from app replicas
		gs = genstore.NewRedisGenStore(rp.Client(), cfg.Store.Prefix)
	case config.StoreMemcache:
		e.provider = memcache.New(cfg.Store.MemcacheServers...)
	case config.StoreMemory:
		op, err := otter.New(otter.Config{MaxSize: 10_000})
		if err != nil {
			return err
		}
		e.provider = op
	}

	resolver := i18n.NewResolver(language.Make(cfg.Locale))
	if cfg.Currency != "" {
		u, err := currency.ParseISO(cfg.Currency)
		if err != nil {
			return fmt.Errorf("currency %q: %w", cfg.Currency, err)
		}
		resolver.DefaultCurrency = u
	}

	e.cache, err = cacheable.New(cacheable.Options{
		Provider:      e.provider,
		GenStore:      gs,
		Namespace:     cfg.Version.Namespace,
		VersionExpiry: cfg.Version.Expiry,
		Locale:        resolver,
		Currency:      resolver,
		Logger:        zaplog.New(log),
	})
	if err != nil {
		return err
	}

	cctx.App.Metadata = map[string]any{envKey: e}
	log.Debug("cachectl ready",
		zap.String("store", cfg.Store.Kind),
		zap.String("version_key", e.cache.Version().Key()))
	return nil
}

func applyOverrides(cctx *cli.Context, cfg *config.Config) {
	if v := cctx.String("store"); v != "" {
		cfg.Store.Kind = v
	}
	if v := cctx.String("redis-url"); v != "" {
		cfg.Store.RedisURL = v
	}
	if v := cctx.StringSlice("memcache"); len(v) > 0 {
		cfg.Store.MemcacheServers = v
	}
	if v := cctx.String("namespace"); v != "" {
		cfg.Version.Namespace = v
	}
	if v := cctx.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
}

func newLogger(lc config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if lc.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	if lc.Level != "" {
		lvl, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zc.Build()
}

func loadPolicies(path string) (map[string]cacheable.Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read policies: %w", err)
	}
	defer f.Close()
	return cacheable.DecodePolicies(f)
}

func teardown(cctx *cli.Context) error {
	e, ok := cctx.App.Metadata[envKey].(*env)
	if !ok {
		return nil
	}
	err := e.cache.Close(context.Background())
	_ = e.log.Sync()
	return err
}

func envFrom(cctx *cli.Context) *env {
	return cctx.App.Metadata[envKey].(*env)
}

func opContext(cctx *cli.Context, e *env) (context.Context, context.CancelFunc) {
	ctx := cctx.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if e.cfg.Store.Timeout > 0 {
		return context.WithTimeout(ctx, e.cfg.Store.Timeout)
	}
	return context.WithCancel(ctx)
}

func runVersionGet(cctx *cli.Context) error {
	e := envFrom(cctx)
	ctx, cancel := opContext(cctx, e)
	defer cancel()
	v, err := e.cache.Version().Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, v)
	return nil
}

func runVersionInit(cctx *cli.Context) error {
	e := envFrom(cctx)
	n := uint64(1)
	if s := cctx.Args().First(); s != "" {
		var err error
		if n, err = strconv.ParseUint(s, 10, 64); err != nil {
			return fmt.Errorf("version must be a positive integer: %w", err)
		}
	}
	ctx, cancel := opContext(cctx, e)
	defer cancel()
	v, err := e.cache.Version().Init(ctx, n)
	if err != nil {
		return err
	}
	if v != n {
		e.log.Info("version already ahead; left unchanged", zap.Uint64("requested", n), zap.Uint64("current", v))
	}
	fmt.Fprintln(cctx.App.Writer, v)
	return nil
}

func runVersionBump(cctx *cli.Context) error {
	e := envFrom(cctx)
	ctx, cancel := opContext(cctx, e)
	defer cancel()
	v, err := e.cache.Version().Inc(ctx)
	if err != nil {
		return err
	}
	e.log.Info("version bumped", zap.String("key", e.cache.Version().Key()), zap.Uint64("version", v))
	fmt.Fprintln(cctx.App.Writer, v)
	return nil
}

// call is the target, op and args of a key/expire invocation.
type call struct {
	target any
	op     string
	args   []any
	policy cacheable.Policy
}

func parseCall(cctx *cli.Context, e *env) (call, error) {
	if cctx.NArg() == 0 {
		return call{}, errors.New("missing operation name")
	}
	typ := cacheable.NamedType(cctx.String("type"))
	c := call{target: typ, op: cctx.Args().First()}
	if id := cctx.String("id"); id != "" {
		ref := cacheable.Ref{Type: typ, ID: id}
		if ts := cctx.Timestamp("modified"); ts != nil {
			ref.Modified = *ts
		}
		c.target = ref
	}
	for _, a := range cctx.Args().Tail() {
		c.args = append(c.args, a)
	}
	c.policy = e.policies[c.op]
	c.policy.IncludeLocale = c.policy.IncludeLocale || cctx.Bool("include-locale")
	c.policy.IncludeCurrency = c.policy.IncludeCurrency || cctx.Bool("include-currency")
	return c, nil
}

// withDimensions applies --locale and --currency to ctx.
func withDimensions(ctx context.Context, cctx *cli.Context) (context.Context, error) {
	if l := cctx.String("locale"); l != "" {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", l, err)
		}
		ctx = i18n.WithLocale(ctx, tag)
	}
	if cur := cctx.String("currency"); cur != "" {
		u, err := currency.ParseISO(cur)
		if err != nil {
			return nil, fmt.Errorf("currency %q: %w", cur, err)
		}
		ctx = i18n.WithCurrency(ctx, u)
	}
	return ctx, nil
}

func runKey(cctx *cli.Context) error {
	e := envFrom(cctx)
	c, err := parseCall(cctx, e)
	if err != nil {
		return err
	}
	ctx, cancel := opContext(cctx, e)
	defer cancel()
	if ctx, err = withDimensions(ctx, cctx); err != nil {
		return err
	}
	key, err := e.cache.Key(ctx, c.target, c.op, c.args, c.policy)
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, key)
	return nil
}

func runExpire(cctx *cli.Context) error {
	e := envFrom(cctx)
	c, err := parseCall(cctx, e)
	if err != nil {
		return err
	}
	ctx, cancel := opContext(cctx, e)
	defer cancel()
	if ctx, err = withDimensions(ctx, cctx); err != nil {
		return err
	}
	key, err := e.cache.Key(ctx, c.target, c.op, c.args, c.policy)
	if err != nil {
		return err
	}
	if err := e.cache.Expire(ctx, c.target, c.op, c.args, c.policy); err != nil {
		return err
	}
	e.log.Info("expired", zap.String("key", key))
	fmt.Fprintln(cctx.App.Writer, "expired", key)
	return nil
}

func runInspect(cctx *cli.Context) error {
	e := envFrom(cctx)
	key := cctx.Args().First()
	if key == "" {
		return errors.New("missing key")
	}
	ctx, cancel := opContext(cctx, e)
	defer cancel()
	raw, ok, err := e.provider.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%q not found", key)
	}

	w := cctx.App.Writer
	entry, err := wire.Decode(raw)
	if err != nil {
		// counters and foreign values are stored unframed
		fmt.Fprintf(w, "key:     %s\nframed:  false\nsize:    %d\nraw:     %s\n", key, len(raw), render(raw))
		return nil
	}
	fmt.Fprintf(w, "key:     %s\nframed:  true\nwritten: %s (%s ago)\nsize:    %d\npayload: %s\n",
		key,
		entry.WrittenAt.Format(time.RFC3339),
		time.Since(entry.WrittenAt).Round(time.Second),
		len(entry.Payload),
		render(entry.Payload))
	return nil
}

func render(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}

func runPolicies(cctx *cli.Context) error {
	e := envFrom(cctx)
	ps := e.policies
	if path := cctx.Args().First(); path != "" {
		var err error
		if ps, err = loadPolicies(path); err != nil {
			return err
		}
	}
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		p := ps[n]
		fmt.Fprintf(cctx.App.Writer, "%s\texpires_in=%s memoized=%t include_locale=%t include_currency=%t\n",
			n, p.ExpiresIn, !p.DisableMemo, p.IncludeLocale, p.IncludeCurrency)
	}
	return nil
}
