package compiler

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ScratchPrefix names every scratch directory created by an Environment.
const ScratchPrefix = "compiler-explorer-compiler"

// Environment is shared by all compilers: it bounds concurrent
// compilations and reports whether any are running.
type Environment struct {
	TmpDir         string
	CompileTimeout time.Duration

	sem    *semaphore.Weighted
	active atomic.Int64
}

func NewEnvironment(tmpDir string, maxConcurrent int, compileTimeout time.Duration) *Environment {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if compileTimeout <= 0 {
		compileTimeout = 10 * time.Second
	}
	return &Environment{
		TmpDir:         tmpDir,
		CompileTimeout: compileTimeout,
		sem:            semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Enter blocks until a compilation slot is free. The returned release must
// be called once the compilation is over.
func (e *Environment) Enter(ctx context.Context) (func(), error) {
	e.active.Add(1)
	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.active.Add(-1)
		return nil, fmt.Errorf("acquire compilation slot: %w", err)
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			e.sem.Release(1)
			e.active.Add(-1)
		}
	}, nil
}

// IsBusy reports whether any compilation is waiting or running.
func (e *Environment) IsBusy() bool {
	return e.active.Load() > 0
}

func (e *Environment) NewScratchDir() (string, error) {
	if err := os.MkdirAll(e.TmpDir, 0755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}
	dir, err := os.MkdirTemp(e.TmpDir, ScratchPrefix)
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}
