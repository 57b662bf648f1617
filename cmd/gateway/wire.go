//go:build wireinject

package main

import (
	"github.com/google/wire"
	iocself "github.com/to404hanga/online_judge_compiler/cmd/gateway/ioc"
	"github.com/to404hanga/online_judge_compiler/cmd/gateway/service"
	"github.com/to404hanga/online_judge_compiler/ioc"
	"github.com/to404hanga/online_judge_compiler/registry"
)

func BuildDependency() *service.App {
	wire.Build(
		ioc.InitLogger,
		iocself.InitGatewayConfig,
		iocself.InitEnvironmentConfig,
		iocself.InitDockerConfig,
		iocself.InitEnvironment,
		iocself.InitDockerBackend,
		iocself.InitFactories,
		iocself.InitRegistry,
		iocself.InitSource,
		iocself.InitKafka,
		iocself.InitSink,
		iocself.InitCache,
		iocself.InitRenderer,
		iocself.InitHandler,
		iocself.InitServer,
		iocself.InitCleaner,
		iocself.InitClosers,
		iocself.InitReloadConsumer,
		wire.Bind(new(service.Rebuilder), new(*registry.Registry)),
		service.NewReloadService,
		service.NewApp,
	)
	return nil
}
