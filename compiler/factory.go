package compiler

import (
	"context"
	"fmt"
	"sync"

	"github.com/to404hanga/online_judge_compiler/model"
)

// Constructor builds a compiler from its config. A nil Compiler with a nil
// error means the config yields no usable instance.
type Constructor func(ctx context.Context, cfg model.CompilerConfig, env *Environment, lang string) (Compiler, error)

// Loader prepares the Constructor for one compiler-type tag. It runs on the
// first use of the tag and its result is kept for the life of the process.
type Loader func() (Constructor, error)

type registration struct {
	load Loader

	// mu 只串行化同一个类型的加载
	mu   sync.Mutex
	ctor Constructor
}

type Factories struct {
	mu            sync.Mutex
	registrations map[string]*registration
}

func NewFactories() *Factories {
	return &Factories{
		registrations: make(map[string]*registration),
	}
}

// Register sets the Loader for tag, discarding any Constructor loaded for
// it before.
func (f *Factories) Register(tag string, loader Loader) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registrations[tag] = &registration{load: loader}
}

// RegisterConstructor registers a Constructor that needs no preparation.
func (f *Factories) RegisterConstructor(tag string, c Constructor) {
	f.Register(tag, func() (Constructor, error) { return c, nil })
}

// Lookup returns the Constructor for tag, running its Loader on first use.
// A failed load is not cached. A slow Loader only delays lookups of its own
// tag.
func (f *Factories) Lookup(tag string) (Constructor, error) {
	f.mu.Lock()
	reg, ok := f.registrations[tag]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown compiler type %q", tag)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.ctor != nil {
		return reg.ctor, nil
	}
	c, err := reg.load()
	if err != nil {
		return nil, fmt.Errorf("load compiler type %q: %w", tag, err)
	}
	reg.ctor = c
	return c, nil
}

func (f *Factories) Tags() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags := make([]string, 0, len(f.registrations))
	for tag := range f.registrations {
		tags = append(tags, tag)
	}
	return tags
}
