package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/to404hanga/online_judge_compiler/compiler"
	"github.com/to404hanga/online_judge_compiler/model"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"golang.org/x/sync/errgroup"
)

type entry struct {
	compiler compiler.Compiler
	modTime  time.Time
	tracked  bool // modTime is only known for an absolute Exe
	// revision 随实例构造生成, 复用实例时保持不变
	revision string
}

type language struct {
	ids  []string
	byID map[string]*entry
}

// snapshot is one complete generation of the registry. It is never modified
// once published.
type snapshot struct {
	langs  []string
	byLang map[string]*language
}

func (s *snapshot) lookup(lang, id string) *entry {
	if s == nil {
		return nil
	}
	if l, ok := s.byLang[lang]; ok {
		return l.byID[id]
	}
	return nil
}

type Registry struct {
	log       loggerv2.Logger
	factories *compiler.Factories
	env       *compiler.Environment
	stat      func(string) (os.FileInfo, error)

	current atomic.Pointer[snapshot]
	// rebuildMu serializes rebuilds, readers never take it.
	rebuildMu sync.Mutex
}

type Option func(*Registry)

// WithStat replaces os.Stat for querying executable metadata.
func WithStat(stat func(string) (os.FileInfo, error)) Option {
	return func(r *Registry) {
		r.stat = stat
	}
}

func New(log loggerv2.Logger, factories *compiler.Factories, env *compiler.Environment, opts ...Option) *Registry {
	r := &Registry{
		log:       log,
		factories: factories,
		env:       env,
		stat:      os.Stat,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.current.Store(&snapshot{byLang: map[string]*language{}})
	return r
}

// Rebuild constructs a new snapshot from configs and publishes it in one
// swap. Configs that fail to build, or that lack an id or lang, are
// dropped. An instance is reused only when its executable mtime and its
// config are both unchanged; any config change rebuilds it. An error is
// returned only when configs as a whole are unusable (a duplicate
// compiler), and the previous snapshot then stays live.
func (r *Registry) Rebuild(ctx context.Context, configs []model.CompilerConfig) (infos []model.CompilerInfo, err error) {
	r.rebuildMu.Lock()
	defer r.rebuildMu.Unlock()

	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			r.log.ErrorContext(ctx, "Registry rebuild failed, keeping previous compilers", logger.Error(err))
		}
		rebuildTotal.WithLabelValues(result).Inc()
		rebuildDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	if configs, err = r.validate(ctx, configs); err != nil {
		return nil, err
	}

	prev := r.current.Load()
	built := make([]*entry, len(configs))
	var g errgroup.Group
	for i := range configs {
		g.Go(func() error {
			built[i] = r.build(ctx, prev, configs[i])
			return nil
		})
	}
	_ = g.Wait()
	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("rebuild interrupted: %w", err)
	}

	next := &snapshot{byLang: make(map[string]*language)}
	infos = make([]model.CompilerInfo, 0, len(configs))
	for i, cfg := range configs {
		e := built[i]
		if e == nil {
			continue
		}
		l, ok := next.byLang[cfg.Lang]
		if !ok {
			l = &language{byID: make(map[string]*entry)}
			next.byLang[cfg.Lang] = l
			next.langs = append(next.langs, cfg.Lang)
		}
		l.byID[cfg.ID] = e
		l.ids = append(l.ids, cfg.ID)
		infos = append(infos, e.compiler.Info())
	}

	r.current.Store(next)
	compilersLive.Set(float64(len(infos)))
	r.log.InfoContext(ctx, "Registry rebuilt",
		logger.Any("configured", len(configs)),
		logger.Any("live", len(infos)))
	return infos, nil
}

// validate drops configs without an id or lang. A duplicate compiler makes
// the whole configuration ambiguous.
func (r *Registry) validate(ctx context.Context, configs []model.CompilerConfig) ([]model.CompilerConfig, error) {
	valid := make([]model.CompilerConfig, 0, len(configs))
	seen := make(map[[2]string]struct{}, len(configs))
	for i, cfg := range configs {
		if cfg.ID == "" || cfg.Lang == "" {
			buildOutcomeTotal.WithLabelValues("invalid").Inc()
			r.log.WarnContext(ctx, "Compiler config lacks id or lang, skipping",
				logger.Any("index", i), logger.String("compiler", cfg.ID), logger.String("lang", cfg.Lang))
			continue
		}
		key := [2]string{cfg.Lang, cfg.ID}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("compiler config #%d: duplicate compiler %s/%s", i, cfg.Lang, cfg.ID)
		}
		seen[key] = struct{}{}
		valid = append(valid, cfg)
	}
	return valid, nil
}

func (r *Registry) build(ctx context.Context, prev *snapshot, cfg model.CompilerConfig) *entry {
	ctx = loggerv2.ContextWithFields(ctx, logger.String("compiler", cfg.ID), logger.String("lang", cfg.Lang))

	e := &entry{}
	if cfg.HasRealExe() {
		fi, err := r.stat(cfg.Exe)
		if err != nil {
			buildOutcomeTotal.WithLabelValues("missing").Inc()
			r.log.WarnContext(ctx, "Compiler executable unavailable, skipping", logger.String("exe", cfg.Exe), logger.Error(err))
			return nil
		}
		e.modTime = fi.ModTime()
		e.tracked = true
		if old := prev.lookup(cfg.Lang, cfg.ID); old != nil && old.tracked &&
			old.modTime.Equal(e.modTime) && reflect.DeepEqual(old.compiler.Config(), cfg) {
			buildOutcomeTotal.WithLabelValues("reused").Inc()
			return old
		}
	}

	construct, err := r.factories.Lookup(cfg.Type)
	if err != nil {
		buildOutcomeTotal.WithLabelValues("error").Inc()
		r.log.WarnContext(ctx, "No construction strategy for compiler", logger.Error(err))
		return nil
	}
	c, err := safeConstruct(ctx, construct, cfg, r.env)
	if err != nil {
		buildOutcomeTotal.WithLabelValues("error").Inc()
		r.log.ErrorContext(ctx, "Failed to construct compiler", logger.Error(err))
		return nil
	}
	if c == nil {
		buildOutcomeTotal.WithLabelValues("unusable").Inc()
		r.log.InfoContext(ctx, "Compiler yielded no usable instance, skipping")
		return nil
	}
	buildOutcomeTotal.WithLabelValues("built").Inc()
	e.compiler = c
	stamp := e.modTime
	if !e.tracked {
		stamp = time.Now()
	}
	e.revision = revisionOf(c, stamp)
	return e
}

// revisionOf identifies one constructed instance. Instances built from a
// changed config, version or executable never share a revision.
func revisionOf(c compiler.Compiler, stamp time.Time) string {
	payload, _ := json.Marshal(struct {
		Config  model.CompilerConfig
		Version string
		Stamp   int64
	}{c.Config(), c.Info().Version, stamp.UnixNano()})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}

func safeConstruct(ctx context.Context, construct compiler.Constructor, cfg model.CompilerConfig, env *compiler.Environment) (c compiler.Compiler, err error) {
	defer func() {
		if p := recover(); p != nil {
			c, err = nil, errors.Errorf("construct %s panicked: %v", cfg.ID, p)
		}
	}()
	return construct(ctx, cfg, env, cfg.Lang)
}

// Find returns the compiler addressed by lang and id. When lang is empty or
// unknown every language is scanned in insertion order and the first
// compiler with a matching id wins.
func (r *Registry) Find(lang, id string) compiler.Compiler {
	c, _ := r.Resolve(lang, id)
	return c
}

// Resolve is Find that also returns the revision of the instance, taken
// from the same snapshot.
func (r *Registry) Resolve(lang, id string) (compiler.Compiler, string) {
	s := r.current.Load()
	if l, ok := s.byLang[lang]; ok {
		if e, ok := l.byID[id]; ok {
			return e.compiler, e.revision
		}
		return nil, ""
	}
	for _, name := range s.langs {
		if e, ok := s.byLang[name].byID[id]; ok {
			return e.compiler, e.revision
		}
	}
	return nil, ""
}

// List returns the public descriptors of the live snapshot in insertion
// order, restricted to lang when it is not empty.
func (r *Registry) List(lang string) []model.CompilerInfo {
	s := r.current.Load()
	infos := []model.CompilerInfo{}
	for _, name := range s.langs {
		if lang != "" && name != lang {
			continue
		}
		l := s.byLang[name]
		for _, id := range l.ids {
			infos = append(infos, l.byID[id].compiler.Info())
		}
	}
	return infos
}

func (r *Registry) Len() int {
	s := r.current.Load()
	n := 0
	for _, l := range s.byLang {
		n += len(l.ids)
	}
	return n
}
