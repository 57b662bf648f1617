package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/to404hanga/online_judge_compiler/errs"
	"github.com/to404hanga/online_judge_compiler/model"
)

const (
	TypeGCC   = "gcc"
	TypeClang = "clang"

	// TimeoutCode is the exit code reported when a compilation is killed.
	TimeoutCode = -1

	probeTimeout = 5 * time.Second
)

type flavor struct {
	intelArgs []string
}

var flavors = map[string]flavor{
	TypeGCC:   {intelArgs: []string{"-masm=intel"}},
	TypeClang: {intelArgs: []string{"-mllvm", "--x86-asm-syntax=intel"}},
}

// IntelArgs returns the arguments that switch the given flavor to Intel
// assembly syntax.
func IntelArgs(tag string) []string {
	return flavors[tag].intelArgs
}

// RegisterLocal registers the strategies that run a compiler binary on
// this host.
func RegisterLocal(f *Factories) {
	for tag := range flavors {
		f.RegisterConstructor(tag, NewLocal)
	}
}

type localCompiler struct {
	Base
	env       *Environment
	flavor    flavor
	fixedArgs []string
}

// NewLocal probes cfg.Exe for its version. A binary that cannot be probed
// yields no compiler.
func NewLocal(ctx context.Context, cfg model.CompilerConfig, env *Environment, lang string) (Compiler, error) {
	fl, ok := flavors[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("type %q is not a local compiler", cfg.Type)
	}
	fixed, err := shellquote.Split(cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("parse options of %s: %w", cfg.ID, err)
	}
	version, err := probeVersion(ctx, cfg.Exe)
	if err != nil {
		return nil, nil
	}
	return &localCompiler{
		Base:      Base{Cfg: cfg, Lang: lang, Version: version},
		env:       env,
		flavor:    fl,
		fixedArgs: fixed,
	}, nil
}

func probeVersion(ctx context.Context, exe string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, exe, "--version").Output()
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(first), nil
}

func (c *localCompiler) Compile(ctx context.Context, source string, options []string, _ json.RawMessage, filters model.Filters) (*model.CompilationResult, error) {
	release, err := c.env.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	dir, err := c.env.NewScratchDir()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "example"+SourceExtension(c.Cfg))
	if err = os.WriteFile(src, []byte(source), 0644); err != nil {
		return nil, fmt.Errorf("write source: %w", err)
	}
	out := filepath.Join(dir, "output.s")
	args := c.args(options, filters)
	args = append(args, "-S", "-o", out, src)

	runCtx, cancel := context.WithTimeout(ctx, c.env.CompileTimeout)
	defer cancel()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, c.Cfg.Exe, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	err = cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, errs.Compilation(TimeoutCode, stdout.String(), stderr.String()+"\nKilled - processing time exceeded")
	}
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run %s: %w", c.Cfg.Exe, err)
		}
		code = exitErr.ExitCode()
	}

	result := &model.CompilationResult{
		Code:   code,
		Stdout: ParseOutput(stdout.String(), dir),
		Stderr: ParseOutput(stderr.String(), dir),
	}
	if code == 0 {
		asm, err := os.ReadFile(out)
		if err != nil {
			return nil, fmt.Errorf("read assembly: %w", err)
		}
		result.Asm = ParseOutput(string(asm), dir)
	}
	return result, nil
}

func (c *localCompiler) args(options []string, filters model.Filters) []string {
	args := make([]string, 0, len(c.fixedArgs)+len(options)+6)
	args = append(args, c.fixedArgs...)
	if filters.Has("intel") {
		args = append(args, c.flavor.intelArgs...)
	}
	return append(args, options...)
}

// SourceExtension returns the file extension used for the source file.
func SourceExtension(cfg model.CompilerConfig) string {
	if cfg.Extension != "" {
		if !strings.HasPrefix(cfg.Extension, ".") {
			return "." + cfg.Extension
		}
		return cfg.Extension
	}
	switch cfg.Lang {
	case "c":
		return ".c"
	case "rust":
		return ".rs"
	case "go":
		return ".go"
	default:
		return ".cpp"
	}
}
