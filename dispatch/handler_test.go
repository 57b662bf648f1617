package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_compiler/cache"
	"github.com/to404hanga/online_judge_compiler/compiler"
	"github.com/to404hanga/online_judge_compiler/errs"
	"github.com/to404hanga/online_judge_compiler/model"
	"github.com/to404hanga/online_judge_compiler/render"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type compileCall struct {
	source  string
	options []string
	backend json.RawMessage
	filters model.Filters
}

type stubCompiler struct {
	compiler.Base
	result   *model.CompilationResult
	err      error
	explode  bool
	revision string

	mu    sync.Mutex
	calls []compileCall
}

func (s *stubCompiler) Compile(_ context.Context, source string, options []string, backend json.RawMessage, filters model.Filters) (*model.CompilationResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, compileCall{source, options, backend, filters})
	s.mu.Unlock()
	if s.explode {
		panic("index out of range")
	}
	return s.result, s.err
}

func (s *stubCompiler) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newStub(id, lang string, defaults ...string) *stubCompiler {
	return &stubCompiler{
		Base: compiler.Base{Cfg: model.CompilerConfig{ID: id, Lang: lang, Type: "gcc", DefaultFilters: defaults}, Lang: lang},
		result: &model.CompilationResult{
			Stdout: []model.OutputLine{},
			Stderr: []model.OutputLine{},
			Asm:    model.Lines("main:", "\txor eax, eax", "\tret"),
		},
	}
}

type stubFinder struct {
	mu        sync.Mutex
	compilers []*stubCompiler
	lookups   [][2]string
}

func (f *stubFinder) Resolve(lang, id string) (compiler.Compiler, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, [2]string{lang, id})
	for _, c := range f.compilers {
		if c.Cfg.ID == id && (lang == "" || c.Lang == lang) {
			return c, c.revision
		}
	}
	return nil, ""
}

// swap replaces the live compilers, as a registry rebuild does.
func (f *stubFinder) swap(compilers ...*stubCompiler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compilers = compilers
}

func (f *stubFinder) List(lang string) []model.CompilerInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	infos := []model.CompilerInfo{}
	for _, c := range f.compilers {
		if lang == "" || c.Lang == lang {
			infos = append(infos, c.Info())
		}
	}
	return infos
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]*model.CompilationResult
}

func (c *mapCache) Get(_ context.Context, key string) (*model.CompilationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.m[key]
	return r, ok
}

func (c *mapCache) Set(_ context.Context, key string, r *model.CompilationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = r
}

type nopSink struct{}

func (nopSink) Capture(context.Context, error, map[string]string) {}

func newTestHandler(finder Finder, opts ...Option) http.Handler {
	log := loggerv2.GetGlobalLogger()
	rd := render.New(log, "", compiler.LineParser{}, nopSink{})
	return NewHandler(log, finder, rd, opts...).Routes()
}

func do(t *testing.T, h http.Handler, method, target, contentType, accept, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCompileStructured(t *testing.T) {
	gcc := newStub("g13", "c++", "intel")
	gcc.result.Asm = model.Lines("main:")
	h := newTestHandler(&stubFinder{compilers: []*stubCompiler{gcc}})

	w := do(t, h, http.MethodPost, "/api/compiler/g13/compile", "application/json", "application/json",
		`{"source":"int main(){}","options":{"userArguments":"-O2"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"stdout":[],"stderr":[],"asm":[{"text":"main:"}]}`, w.Body.String())
	require.Equal(t, 1, gcc.callCount())
	assert.Equal(t, "int main(){}", gcc.calls[0].source)
	assert.Equal(t, []string{"-O2"}, gcc.calls[0].options)
	assert.Equal(t, model.NewFilters("intel"), gcc.calls[0].filters)
}

func TestCompileLegacyExplicitFilters(t *testing.T) {
	gcc := newStub("g13", "c++", "intel")
	h := newTestHandler(&stubFinder{compilers: []*stubCompiler{gcc}})

	w := do(t, h, http.MethodPost, "/api/compiler/g13/compile?filters=binary&options=-O1", "text/plain", "", "int x;")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "main:\n\txor eax, eax\n\tret\n", w.Body.String())
	require.Equal(t, 1, gcc.callCount())
	assert.Equal(t, model.NewFilters("binary"), gcc.calls[0].filters)
	assert.Equal(t, []string{"-O1"}, gcc.calls[0].options)
	assert.Equal(t, "int x;", gcc.calls[0].source)
}

func TestCompileAddressing(t *testing.T) {
	f := &stubFinder{compilers: []*stubCompiler{newStub("shared", "c"), newStub("shared", "c++")}}
	h := newTestHandler(f)

	do(t, h, http.MethodPost, "/api/c++/compiler/shared/compile", "text/plain", "", "x")
	do(t, h, http.MethodPost, "/api/compiler/shared/compile?lang=c", "text/plain", "", "x")
	do(t, h, http.MethodPost, "/api/compiler/shared/compile", "application/json", "", `{"source":"x","lang":"c++"}`)
	do(t, h, http.MethodPost, "/api/compiler/shared/compile", "text/plain", "", "x")

	assert.Equal(t, [][2]string{{"c++", "shared"}, {"c", "shared"}, {"c++", "shared"}, {"", "shared"}}, f.lookups)
}

func TestCompileUnknownCompilerPassesOn(t *testing.T) {
	gcc := newStub("g13", "c++")
	var nextBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		nextBody = string(b)
		w.WriteHeader(http.StatusTeapot)
	})
	h := newTestHandler(&stubFinder{compilers: []*stubCompiler{gcc}}, WithNext(next))

	w := do(t, h, http.MethodPost, "/api/compiler/nope/compile", "text/plain", "", "int x;")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "int x;", nextBody)
	assert.Zero(t, gcc.callCount())
}

func TestCompileMissingSource(t *testing.T) {
	gcc := newStub("g13", "c++")
	h := newTestHandler(&stubFinder{compilers: []*stubCompiler{gcc}})

	w := do(t, h, http.MethodPost, "/api/compiler/g13/compile", "application/json", "", `{"options":{"userArguments":"-O2"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/compiler/g13/compile", "text/plain", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/compiler/g13/compile", "application/json", "", `{"source":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, gcc.callCount())
}

func TestCompileFailureRenderedAsJSON(t *testing.T) {
	gcc := newStub("g13", "c++")
	gcc.result = nil
	gcc.err = errs.Compilation(-1, "partial\n", "Killed - processing time exceeded\n")
	h := newTestHandler(&stubFinder{compilers: []*stubCompiler{gcc}})

	w := do(t, h, http.MethodPost, "/api/compiler/g13/compile", "text/plain", "text/plain", "int x;")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":-1,"stdout":[{"text":"partial"}],"stderr":[{"text":"Killed - processing time exceeded"}]}`, w.Body.String())
}

func TestCompilePanicIsInternal(t *testing.T) {
	gcc := newStub("g13", "c++")
	gcc.explode = true
	other := newStub("g12", "c++")
	h := newTestHandler(&stubFinder{compilers: []*stubCompiler{gcc, other}})

	w := do(t, h, http.MethodPost, "/api/compiler/g13/compile", "text/plain", "", "int x;")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var payload render.ErrorPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, -1, payload.Code)
	require.Len(t, payload.Stderr, 1)
	assert.Contains(t, payload.Stderr[0].Text, "compiler g13 panicked: index out of range")

	w = do(t, h, http.MethodPost, "/api/compiler/g12/compile", "text/plain", "", "int x;")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCompileUsesCache(t *testing.T) {
	gcc := newStub("g13", "c++")
	h := newTestHandler(&stubFinder{compilers: []*stubCompiler{gcc}}, WithCache(&mapCache{m: map[string]*model.CompilationResult{}}))

	first := do(t, h, http.MethodPost, "/api/compiler/g13/compile?options=-O2", "text/plain", "", "int x;")
	second := do(t, h, http.MethodPost, "/api/compiler/g13/compile?options=-O2", "text/plain", "", "int x;")
	third := do(t, h, http.MethodPost, "/api/compiler/g13/compile?options=-O3", "text/plain", "", "int x;")

	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, 2, gcc.callCount())
}

func TestCompileCacheSeparatesLanguages(t *testing.T) {
	cc := newStub("shared", "c")
	cc.result = &model.CompilationResult{Asm: model.Lines("C-ASM")}
	cpp := newStub("shared", "c++")
	cpp.result = &model.CompilationResult{Asm: model.Lines("CPP-ASM")}
	h := newTestHandler(&stubFinder{compilers: []*stubCompiler{cc, cpp}}, WithCache(&mapCache{m: map[string]*model.CompilationResult{}}))

	c := do(t, h, http.MethodPost, "/api/c/compiler/shared/compile", "text/plain", "", "int x;")
	cxx := do(t, h, http.MethodPost, "/api/c++/compiler/shared/compile", "text/plain", "", "int x;")

	assert.Equal(t, "C-ASM\n", c.Body.String())
	assert.Equal(t, "CPP-ASM\n", cxx.Body.String())
	assert.Equal(t, 1, cc.callCount())
	assert.Equal(t, 1, cpp.callCount())
}

func TestCompileCacheMissesAfterRebuild(t *testing.T) {
	old := newStub("g13", "c++")
	old.revision = "r1"
	old.result = &model.CompilationResult{Asm: model.Lines("OLD")}
	rebuilt := newStub("g13", "c++")
	rebuilt.revision = "r2"
	rebuilt.result = &model.CompilationResult{Asm: model.Lines("NEW")}
	f := &stubFinder{compilers: []*stubCompiler{old}}
	h := newTestHandler(f, WithCache(&mapCache{m: map[string]*model.CompilationResult{}}))

	w := do(t, h, http.MethodPost, "/api/compiler/g13/compile", "text/plain", "", "int x;")
	assert.Equal(t, "OLD\n", w.Body.String())

	f.swap(rebuilt)
	w = do(t, h, http.MethodPost, "/api/compiler/g13/compile", "text/plain", "", "int x;")
	assert.Equal(t, "NEW\n", w.Body.String())
	assert.Equal(t, 1, rebuilt.callCount())
}

func TestListCompilers(t *testing.T) {
	f := &stubFinder{compilers: []*stubCompiler{newStub("g13", "c++"), newStub("cg13", "c")}}
	h := newTestHandler(f)

	w := do(t, h, http.MethodGet, "/api/compilers", "", "application/json", "")
	var infos []model.CompilerInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "g13", infos[0].ID)

	w = do(t, h, http.MethodGet, "/api/compilers/c", "", "text/plain", "")
	assert.Equal(t, "Compiler Name | Description\ncg13          | cg13\n", w.Body.String())
}

var _ cache.Cache = (*mapCache)(nil)
