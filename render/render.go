package render

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang/gddo/httputil"
	"github.com/pkg/errors"
	"github.com/to404hanga/online_judge_compiler/compiler"
	"github.com/to404hanga/online_judge_compiler/errs"
	"github.com/to404hanga/online_judge_compiler/model"
	"github.com/to404hanga/online_judge_compiler/telemetry"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type Format int8

const (
	FormatText Format = iota
	FormatJSON
)

const (
	mimeJSON = "application/json"
	mimeText = "text/plain"
)

// CompilationPayload is the JSON body of a failed compilation.
type CompilationPayload struct {
	Code   int                `json:"code"`
	Stdout []model.OutputLine `json:"stdout"`
	Stderr []model.OutputLine `json:"stderr"`
}

// ErrorPayload is the JSON body of any other unexpected failure.
type ErrorPayload struct {
	Code   int                `json:"code"`
	Stderr []model.OutputLine `json:"stderr"`
}

type Renderer struct {
	log    loggerv2.Logger
	banner string
	parser compiler.OutputParser
	sink   telemetry.Sink
}

func New(log loggerv2.Logger, banner string, parser compiler.OutputParser, sink telemetry.Sink) *Renderer {
	return &Renderer{log: log, banner: banner, parser: parser, sink: sink}
}

// Negotiate picks the response format from the Accept header. JSON wins
// ties. Without an Accept header structured requests get JSON and legacy
// requests get text.
func Negotiate(r *http.Request, structured bool) Format {
	fallback := mimeText
	if structured {
		fallback = mimeJSON
	}
	if httputil.NegotiateContentType(r, []string{mimeJSON, mimeText}, fallback) == mimeJSON {
		return FormatJSON
	}
	return FormatText
}

// Result writes a successful compilation in format.
func (r *Renderer) Result(ctx context.Context, w http.ResponseWriter, format Format, result *model.CompilationResult) {
	if format == FormatJSON {
		writeJSON(w, http.StatusOK, result)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(r.text(ctx, result)))
}

func (r *Renderer) text(ctx context.Context, result *model.CompilationResult) (out string) {
	var b strings.Builder
	defer func() {
		if p := recover(); p != nil {
			err := errors.Errorf("format text result: %v", p)
			r.sink.Capture(ctx, err, nil)
			out = b.String() + "Error handling request: " + err.Error() + "\n"
		}
	}()
	if r.banner != "" {
		b.WriteString("# " + r.banner + "\n")
	}
	b.WriteString(textify(result.Asm))
	if result.Code != 0 {
		fmt.Fprintf(&b, "\n# Compiler exited with result code %d", result.Code)
	}
	if len(result.Stdout) > 0 {
		b.WriteString("\nStandard out:\n" + textify(result.Stdout))
	}
	if len(result.Stderr) > 0 {
		b.WriteString("\nStandard error:\n" + textify(result.Stderr))
	}
	b.WriteString("\n")
	return b.String()
}

func textify(lines []model.OutputLine) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// Error writes a pipeline failure. Compilation and internal failures are
// always written as JSON.
func (r *Renderer) Error(ctx context.Context, w http.ResponseWriter, format Format, err error) {
	e := errs.As(err)
	switch e.Kind {
	case errs.KindCompilation:
		writeJSON(w, http.StatusOK, CompilationPayload{
			Code:   e.Code,
			Stdout: r.parser.Parse(e.Stdout),
			Stderr: r.parser.Parse(e.Stderr),
		})
	case errs.KindBadRequest, errs.KindNotFound:
		status := http.StatusBadRequest
		if e.Kind == errs.KindNotFound {
			status = http.StatusNotFound
		}
		if format == FormatJSON {
			writeJSON(w, status, map[string]string{"error": e.Error()})
			return
		}
		http.Error(w, e.Error(), status)
	default:
		status := http.StatusInternalServerError
		if e.Kind == errs.KindDelegation {
			status = http.StatusBadGateway
		}
		// e 为内部包装, 优先使用原始错误的调用栈
		cause := err
		if e.Err != nil {
			cause = e.Err
		}
		r.sink.Capture(ctx, err, nil)
		r.log.ErrorContext(ctx, "Request failed", logger.Error(err))
		writeJSON(w, status, ErrorPayload{
			Code:   -1,
			Stderr: []model.OutputLine{{Text: telemetry.Describe(cause)}},
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
