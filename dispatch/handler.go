package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/to404hanga/online_judge_compiler/cache"
	"github.com/to404hanga/online_judge_compiler/compiler"
	"github.com/to404hanga/online_judge_compiler/errs"
	"github.com/to404hanga/online_judge_compiler/model"
	"github.com/to404hanga/online_judge_compiler/render"
	"github.com/to404hanga/online_judge_compiler/request"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const defaultMaxBodyBytes = 8 << 20

// Finder resolves compilers from the live registry snapshot. Resolve also
// returns the revision of the resolved instance.
type Finder interface {
	Resolve(lang, id string) (compiler.Compiler, string)
	List(lang string) []model.CompilerInfo
}

type Handler struct {
	log      loggerv2.Logger
	finder   Finder
	renderer *render.Renderer
	cache    cache.Cache
	next     http.Handler
	proxies  *proxies
	maxBody  int64
}

type Option func(*Handler)

// WithNext sets the handler that receives requests naming no known
// compiler.
func WithNext(next http.Handler) Option {
	return func(h *Handler) {
		h.next = next
	}
}

func WithCache(c cache.Cache) Option {
	return func(h *Handler) {
		h.cache = c
	}
}

// WithTransport sets the transport used to reach remote peers.
func WithTransport(rt http.RoundTripper) Option {
	return func(h *Handler) {
		h.proxies.transport = rt
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		h.maxBody = n
	}
}

func NewHandler(log loggerv2.Logger, finder Finder, renderer *render.Renderer, opts ...Option) *Handler {
	h := &Handler{
		log:      log,
		finder:   finder,
		renderer: renderer,
		cache:    cache.Nop{},
		next:     http.NotFoundHandler(),
		proxies:  &proxies{log: log},
		maxBody:  defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/compilers", h.ListCompilers)
	r.Get("/api/compilers/{lang}", h.ListCompilers)
	r.Post("/api/compiler/{compiler}/compile", h.Compile)
	r.Post("/api/{lang}/compiler/{compiler}/compile", h.Compile)
}

// Routes returns a router serving the compile API, with original URLs kept
// for proxying.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(KeepOriginalURL)
	h.Register(r)
	return r
}

func (h *Handler) Compile(w http.ResponseWriter, r *http.Request) {
	requestsInFlight.Inc()
	defer requestsInFlight.Dec()

	ctx := r.Context()
	structured := request.IsStructured(r.Header.Get("Content-Type"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.reject(ctx, w, r, structured, errs.BadRequest("failed to read body: %v", err))
		return
	}
	// 转发或交给下一个处理器时需要原始请求体
	restoreBody(r, body)

	env, err := request.Parse(r.Header.Get("Content-Type"), body, r.URL.Query())
	if err != nil {
		h.reject(ctx, w, r, structured, err)
		return
	}

	id := chi.URLParam(r, "compiler")
	if id == "" {
		id = env.Compiler()
	}
	lang := chi.URLParam(r, "lang")
	if lang == "" {
		lang = env.Lang()
	}

	c, revision := h.finder.Resolve(lang, id)
	if c == nil {
		requestsTotal.WithLabelValues(outcomeNotFound).Inc()
		h.next.ServeHTTP(w, r)
		return
	}
	ctx = loggerv2.ContextWithFields(ctx, logger.String("compiler", id), logger.String("lang", c.Info().Lang))

	if remote := c.Remote(); remote != "" {
		h.forward(ctx, w, r, remote)
		return
	}

	format := render.Negotiate(r, env.Structured())
	req, err := env.Normalize(c.DefaultFilters())
	if err != nil {
		requestsTotal.WithLabelValues(outcomeBadRequest).Inc()
		h.renderer.Error(ctx, w, format, err)
		return
	}

	key := cache.Key(c.Info().Lang, id, revision, req.Source, req.Options, req.BackendOptions, req.Filters)
	if res, ok := h.cache.Get(ctx, key); ok {
		requestsTotal.WithLabelValues(outcomeCached).Inc()
		h.renderer.Result(ctx, w, format, res)
		return
	}

	start := time.Now()
	res, err := compile(ctx, c, req)
	compileDurationSeconds.WithLabelValues(id).Observe(time.Since(start).Seconds())
	if err != nil {
		if errs.KindOf(err) == errs.KindCompilation {
			requestsTotal.WithLabelValues(outcomeCompileError).Inc()
		} else {
			requestsTotal.WithLabelValues(outcomeInternal).Inc()
		}
		h.renderer.Error(ctx, w, format, err)
		return
	}
	requestsTotal.WithLabelValues(outcomeLocal).Inc()
	h.cache.Set(ctx, key, res)
	h.renderer.Result(ctx, w, format, res)
}

func compile(ctx context.Context, c compiler.Compiler, req *request.Normalized) (res *model.CompilationResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, errs.Internal(errors.Errorf("compiler %s panicked: %v", c.Info().ID, p))
		}
	}()
	res, err = c.Compile(ctx, req.Source, req.Options, req.BackendOptions, req.Filters)
	if err == nil && res == nil {
		err = errs.Internal(errors.Errorf("compiler %s returned no result", c.Info().ID))
	}
	return res, err
}

func (h *Handler) forward(ctx context.Context, w http.ResponseWriter, r *http.Request, remote string) {
	rp, err := h.proxies.get(remote)
	if err != nil {
		requestsTotal.WithLabelValues(outcomeDelegation).Inc()
		derr := errs.Delegation(remote, err)
		h.log.ErrorContext(ctx, "Cannot proxy compile request", logger.Error(derr))
		http.Error(w, derr.Error(), http.StatusBadGateway)
		return
	}
	requestsTotal.WithLabelValues(outcomeRemote).Inc()
	h.log.DebugContext(ctx, "Proxying compile request", logger.String("remote", remote))
	rp.ServeHTTP(w, r.WithContext(ctx))
}

func (h *Handler) reject(ctx context.Context, w http.ResponseWriter, r *http.Request, structured bool, err error) {
	requestsTotal.WithLabelValues(outcomeBadRequest).Inc()
	h.renderer.Error(ctx, w, render.Negotiate(r, structured), err)
}

func restoreBody(r *http.Request, body []byte) {
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
}

// ListCompilers serves the live compilers, optionally restricted to the
// language in the path.
func (h *Handler) ListCompilers(w http.ResponseWriter, r *http.Request) {
	infos := h.finder.List(chi.URLParam(r, "lang"))
	if render.Negotiate(r, true) == render.FormatJSON {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(infos)
		return
	}
	width := len("Compiler Name")
	for _, info := range infos {
		width = max(width, len(info.ID))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-*s | %s\n", width, "Compiler Name", "Description")
	for _, info := range infos {
		fmt.Fprintf(&b, "%-*s | %s\n", width, info.ID, info.Name)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, b.String())
}
