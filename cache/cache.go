// Package cache keeps successful compilation results keyed by everything
// that determines them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/to404hanga/online_judge_compiler/model"
)

type Cache interface {
	Get(ctx context.Context, key string) (*model.CompilationResult, bool)
	Set(ctx context.Context, key string, result *model.CompilationResult)
}

// Key hashes a normalized compile request for the compiler instance named
// by lang, compilerID and revision. A rebuilt instance carries a new
// revision, so results of the old one are never served for it.
func Key(lang, compilerID, revision, source string, options []string, backendOptions json.RawMessage, filters model.Filters) string {
	payload, _ := json.Marshal(struct {
		Lang     string          `json:"l"`
		Compiler string          `json:"c"`
		Revision string          `json:"r"`
		Source   string          `json:"s"`
		Options  []string        `json:"o"`
		Backend  json.RawMessage `json:"b,omitempty"`
		Filters  []string        `json:"f"`
	}{lang, compilerID, revision, source, options, backendOptions, filters.Enabled()})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

type Nop struct{}

func (Nop) Get(context.Context, string) (*model.CompilationResult, bool) { return nil, false }

func (Nop) Set(context.Context, string, *model.CompilationResult) {}

// Tiered reads through its tiers in order and back-fills the faster tiers
// on a hit.
type Tiered struct {
	tiers []Cache
}

func NewTiered(tiers ...Cache) *Tiered {
	return &Tiered{tiers: tiers}
}

func (t *Tiered) Get(ctx context.Context, key string) (*model.CompilationResult, bool) {
	for i, tier := range t.tiers {
		if res, ok := tier.Get(ctx, key); ok {
			for _, faster := range t.tiers[:i] {
				faster.Set(ctx, key, res)
			}
			return res, true
		}
	}
	return nil, false
}

func (t *Tiered) Set(ctx context.Context, key string, result *model.CompilationResult) {
	for _, tier := range t.tiers {
		tier.Set(ctx, key, result)
	}
}
