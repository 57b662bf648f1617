package compiler

import (
	"context"
	"encoding/json"

	"github.com/to404hanga/online_judge_compiler/model"
)

// Compiler is a constructed, ready-to-invoke compiler back-end.
type Compiler interface {
	Info() model.CompilerInfo
	Config() model.CompilerConfig
	// DefaultFilters returns a copy the caller may modify.
	DefaultFilters() model.Filters
	// Remote returns the peer address hosting this compiler, or "".
	Remote() string
	Compile(ctx context.Context, source string, options []string, backendOptions json.RawMessage, filters model.Filters) (*model.CompilationResult, error)
}

// Base implements the descriptive half of Compiler for construction
// strategies to embed.
type Base struct {
	Cfg     model.CompilerConfig
	Lang    string
	Version string
}

func (b *Base) Info() model.CompilerInfo {
	name := b.Cfg.Name
	if name == "" {
		name = b.Cfg.ID
	}
	return model.CompilerInfo{
		ID:      b.Cfg.ID,
		Lang:    b.Lang,
		Name:    name,
		Type:    b.Cfg.Type,
		Version: b.Version,
		Remote:  b.Cfg.Remote,
	}
}

func (b *Base) Config() model.CompilerConfig {
	return b.Cfg
}

func (b *Base) DefaultFilters() model.Filters {
	return model.NewFilters(b.Cfg.DefaultFilters...)
}

func (b *Base) Remote() string {
	return b.Cfg.Remote
}
