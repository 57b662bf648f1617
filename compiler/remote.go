package compiler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/to404hanga/online_judge_compiler/errs"
	"github.com/to404hanga/online_judge_compiler/model"
)

// TypeRemote tags compilers hosted by a peer. Requests for them are
// proxied and never compiled here.
const TypeRemote = "remote"

func RegisterRemote(f *Factories) {
	f.RegisterConstructor(TypeRemote, NewRemote)
}

type remoteCompiler struct {
	Base
}

func NewRemote(_ context.Context, cfg model.CompilerConfig, _ *Environment, lang string) (Compiler, error) {
	if cfg.Remote == "" {
		return nil, fmt.Errorf("compiler %s has type %s but no remote", cfg.ID, TypeRemote)
	}
	return &remoteCompiler{Base: Base{Cfg: cfg, Lang: lang}}, nil
}

func (c *remoteCompiler) Compile(context.Context, string, []string, json.RawMessage, model.Filters) (*model.CompilationResult, error) {
	return nil, errs.Internal(fmt.Errorf("compiler %s is hosted by %s", c.Cfg.ID, c.Cfg.Remote))
}
