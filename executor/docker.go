package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/to404hanga/online_judge_compiler/compiler"
	"github.com/to404hanga/online_judge_compiler/errs"
	"github.com/to404hanga/online_judge_compiler/executor/config"
	"github.com/to404hanga/online_judge_compiler/executor/service"
	"github.com/to404hanga/online_judge_compiler/model"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// TypeDocker is the compiler-type tag of compilers run inside containers.
const TypeDocker = "docker"

// defaultConnectTimeout bounds the first contact with the docker daemon.
const defaultConnectTimeout = 10 * time.Second

// Backend owns the lazily created docker executor behind the docker
// construction strategy.
type Backend struct {
	log loggerv2.Logger
	cfg config.DockerConfig

	// newExecutor 测试时替换
	newExecutor    func(ctx context.Context) (service.Executor, error)
	connectTimeout time.Duration

	mu   sync.Mutex
	exec service.Executor
}

func NewBackend(log loggerv2.Logger, cfg config.DockerConfig) *Backend {
	b := &Backend{log: log, cfg: cfg, connectTimeout: defaultConnectTimeout}
	b.newExecutor = func(ctx context.Context) (service.Executor, error) {
		return service.NewDockerExecutor(ctx, log, cfg.ContainerPoolSize, cfg.DefaultMemoryLimitMB, cfg.WorkDir)
	}
	return b
}

// Register adds the docker strategy to f. The docker daemon is contacted
// on the first build of a docker compiler.
func (b *Backend) Register(f *compiler.Factories) {
	f.Register(TypeDocker, b.load)
}

func (b *Backend) load() (compiler.Constructor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exec == nil {
		ctx, cancel := context.WithTimeout(context.Background(), b.connectTimeout)
		defer cancel()
		exec, err := b.newExecutor(ctx)
		if err != nil {
			b.log.Error("create docker executor failed", logger.Error(err))
			return nil, err
		}
		b.exec = exec
	}
	return newConstructor(b.exec), nil
}

func (b *Backend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exec == nil {
		return nil
	}
	err := b.exec.Close(ctx)
	b.exec = nil
	return err
}

type dockerCompiler struct {
	compiler.Base
	exec      service.Executor
	env       *compiler.Environment
	image     string
	exe       string
	intelArgs []string
	fixedArgs []string
}

func newConstructor(exec service.Executor) compiler.Constructor {
	return func(ctx context.Context, cfg model.CompilerConfig, env *compiler.Environment, lang string) (compiler.Compiler, error) {
		image, ok := config.ImageFor(cfg.Image, lang)
		if !ok {
			return nil, fmt.Errorf("no image for compiler %s", cfg.ID)
		}
		fixed, err := shellquote.Split(cfg.Options)
		if err != nil {
			return nil, fmt.Errorf("parse options of %s: %w", cfg.ID, err)
		}
		exe := cfg.Exe
		if exe == "" {
			exe = defaultExe(lang)
		}
		if err = exec.EnsureImage(ctx, image); err != nil {
			return nil, err
		}
		// 镜像中不存在该编译器时不注册
		probe, err := exec.Run(ctx, &service.RunTask{Image: image, Command: []string{exe, "--version"}})
		if err != nil || probe.ExitCode != 0 {
			return nil, nil
		}
		first, _, _ := strings.Cut(probe.Stdout, "\n")
		return &dockerCompiler{
			Base:      compiler.Base{Cfg: cfg, Lang: lang, Version: strings.TrimSpace(first)},
			exec:      exec,
			env:       env,
			image:     image,
			exe:       exe,
			intelArgs: intelArgs(exe),
			fixedArgs: fixed,
		}, nil
	}
}

func defaultExe(lang string) string {
	switch lang {
	case "c":
		return "gcc"
	case "go":
		return "gccgo"
	default:
		return "g++"
	}
}

func intelArgs(exe string) []string {
	if strings.Contains(path.Base(exe), "clang") {
		return compiler.IntelArgs(compiler.TypeClang)
	}
	return compiler.IntelArgs(compiler.TypeGCC)
}

func (c *dockerCompiler) Compile(ctx context.Context, source string, options []string, _ json.RawMessage, filters model.Filters) (*model.CompilationResult, error) {
	release, err := c.env.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	name := "example" + compiler.SourceExtension(c.Cfg)
	runCtx, cancel := context.WithTimeout(ctx, c.env.CompileTimeout)
	defer cancel()
	res, err := c.exec.Run(runCtx, &service.RunTask{
		Image:   c.image,
		Files:   map[string][]byte{name: []byte(source)},
		Command: c.command(name, options, filters),
	})
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		var stdout, stderr string
		if res != nil {
			stdout, stderr = res.Stdout, res.Stderr
		}
		return nil, errs.Compilation(compiler.TimeoutCode, stdout, stderr+"\nKilled - processing time exceeded")
	}
	if err != nil {
		return nil, fmt.Errorf("run %s in %s: %w", c.exe, c.image, err)
	}

	workDir := c.exec.WorkDir()
	result := &model.CompilationResult{
		Code:   res.ExitCode,
		Stderr: compiler.ParseOutput(res.Stderr, workDir),
	}
	// 汇编写到 stdout, 编译失败时 stdout 才是编译器自身的输出
	if res.ExitCode == 0 {
		result.Stdout = []model.OutputLine{}
		result.Asm = compiler.ParseOutput(res.Stdout, workDir)
	} else {
		result.Stdout = compiler.ParseOutput(res.Stdout, workDir)
	}
	return result, nil
}

func (c *dockerCompiler) command(name string, options []string, filters model.Filters) []string {
	cmd := make([]string, 0, len(c.fixedArgs)+len(options)+8)
	cmd = append(cmd, c.exe)
	cmd = append(cmd, c.fixedArgs...)
	if filters.Has("intel") {
		cmd = append(cmd, c.intelArgs...)
	}
	cmd = append(cmd, options...)
	return append(cmd, "-S", "-o", "-", path.Join(c.exec.WorkDir(), name))
}
