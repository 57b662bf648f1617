package ioc

import (
	"log"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_compiler/config"
	"github.com/to404hanga/online_judge_compiler/ioc"
	"github.com/to404hanga/online_judge_compiler/source"
)

func InitSource(cfg config.GatewayConfig) source.Source {
	switch cfg.CompilerSource {
	case config.CompilerSourceDB:
		db := ioc.InitDB()
		if err := db.AutoMigrate(&source.Compiler{}); err != nil {
			log.Panicf("migrate compiler table failed, err: %v", err)
		}
		return source.NewDBSource(db)
	case config.CompilerSourceFile, "":
		return source.NewViperSource(viper.GetViper(), config.CompilersKey)
	default:
		log.Panicf("unknown compiler source %q", cfg.CompilerSource)
		return nil
	}
}
