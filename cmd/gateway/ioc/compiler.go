package ioc

import (
	"path/filepath"
	"time"

	"github.com/to404hanga/online_judge_compiler/cleaner"
	"github.com/to404hanga/online_judge_compiler/cmd/gateway/service"
	"github.com/to404hanga/online_judge_compiler/compiler"
	"github.com/to404hanga/online_judge_compiler/config"
	"github.com/to404hanga/online_judge_compiler/executor"
	dockerconfig "github.com/to404hanga/online_judge_compiler/executor/config"
	"github.com/to404hanga/online_judge_compiler/registry"
	"github.com/to404hanga/online_judge_compiler/telemetry"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func InitEnvironment(cfg config.EnvironmentConfig) *compiler.Environment {
	return compiler.NewEnvironment(cfg.TmpDir, cfg.MaxConcurrent, time.Duration(cfg.CompileTimeoutSeconds)*time.Second)
}

func InitDockerBackend(l loggerv2.Logger, cfg dockerconfig.DockerConfig) *executor.Backend {
	return executor.NewBackend(l, cfg)
}

func InitFactories(backend *executor.Backend) *compiler.Factories {
	f := compiler.NewFactories()
	compiler.RegisterLocal(f)
	compiler.RegisterRemote(f)
	backend.Register(f)
	return f
}

func InitRegistry(l loggerv2.Logger, f *compiler.Factories, env *compiler.Environment) *registry.Registry {
	return registry.New(l, f, env)
}

func InitCleaner(l loggerv2.Logger, env *compiler.Environment, cfg config.EnvironmentConfig) *cleaner.Cleaner {
	return cleaner.New(l, env, filepath.Clean(env.TmpDir),
		time.Duration(cfg.CleanIntervalSeconds)*time.Second,
		time.Duration(cfg.TmpMaxAgeSeconds)*time.Second,
	)
}

func InitClosers(backend *executor.Backend, sink telemetry.Sink) []service.Closer {
	closers := []service.Closer{backend}
	// kafka sink 需要等待未发送完的事件
	if c, ok := sink.(service.Closer); ok {
		closers = append(closers, c)
	}
	return closers
}
