package ioc

import (
	"net/http"
	"strings"
	"time"

	"github.com/to404hanga/online_judge_compiler/cache"
	"github.com/to404hanga/online_judge_compiler/compiler"
	"github.com/to404hanga/online_judge_compiler/config"
	"github.com/to404hanga/online_judge_compiler/dispatch"
	"github.com/to404hanga/online_judge_compiler/registry"
	"github.com/to404hanga/online_judge_compiler/render"
	"github.com/to404hanga/online_judge_compiler/telemetry"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func InitRenderer(l loggerv2.Logger, cfg config.GatewayConfig, sink telemetry.Sink) *render.Renderer {
	return render.New(l, cfg.TextBanner, compiler.LineParser{}, sink)
}

func InitHandler(l loggerv2.Logger, cfg config.GatewayConfig, reg *registry.Registry, renderer *render.Renderer, c cache.Cache) *dispatch.Handler {
	opts := []dispatch.Option{dispatch.WithCache(c)}
	if cfg.MaxBodyBytes > 0 {
		opts = append(opts, dispatch.WithMaxBodyBytes(cfg.MaxBodyBytes))
	}
	return dispatch.NewHandler(l, reg, renderer, opts...)
}

func InitServer(cfg config.GatewayConfig, h *dispatch.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           Mount(cfg.BasePath, h.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Mount serves h under basePath. The URL seen before the prefix is
// stripped is the one forwarded to remote peers.
func Mount(basePath string, h http.Handler) http.Handler {
	basePath = strings.TrimRight(basePath, "/")
	if basePath == "" {
		return h
	}
	return dispatch.KeepOriginalURL(http.StripPrefix(basePath, h))
}
