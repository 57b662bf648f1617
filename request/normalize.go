package request

import (
	"encoding/json"
	"mime"
	"net/url"

	"github.com/to404hanga/online_judge_compiler/errs"
	"github.com/to404hanga/online_judge_compiler/model"
)

// Normalized is the canonical form of a compile request.
type Normalized struct {
	Source         string
	Options        []string
	BackendOptions json.RawMessage
	Filters        model.Filters
}

type structuredBody struct {
	Source   *string `json:"source"`
	Lang     string  `json:"lang"`
	Compiler string  `json:"compiler"`
	Options  struct {
		UserArguments   string          `json:"userArguments"`
		CompilerOptions json.RawMessage `json:"compilerOptions"`
		Filters         model.Filters   `json:"filters"`
	} `json:"options"`
}

// Envelope is a received compile request before its compiler is known.
type Envelope struct {
	structured bool
	body       structuredBody
	raw        []byte
	query      url.Values
}

// IsStructured reports whether contentType declares a self-describing
// JSON body.
func IsStructured(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

// Parse classifies the request by contentType and decodes it far enough
// to address a compiler.
func Parse(contentType string, body []byte, query url.Values) (*Envelope, error) {
	e := &Envelope{raw: body, query: query}
	if !IsStructured(contentType) {
		return e, nil
	}
	e.structured = true
	if len(body) == 0 {
		return e, nil
	}
	if err := json.Unmarshal(body, &e.body); err != nil {
		return nil, errs.BadRequest("invalid JSON body: %v", err)
	}
	return e, nil
}

func (e *Envelope) Structured() bool {
	return e.structured
}

// Lang returns the language named by the request itself, if any.
func (e *Envelope) Lang() string {
	if e.structured {
		return e.body.Lang
	}
	return e.query.Get("lang")
}

// Compiler returns the compiler id named in a structured body.
func (e *Envelope) Compiler() string {
	if e.structured {
		return e.body.Compiler
	}
	return ""
}

// Normalize produces the canonical request. defaults are the addressed
// compiler's default filters.
func (e *Envelope) Normalize(defaults model.Filters) (*Normalized, error) {
	var (
		source  *string
		options string
		backend json.RawMessage
		filters model.Filters
	)
	if e.structured {
		source = e.body.Source
		options = e.body.Options.UserArguments
		backend = e.body.Options.CompilerOptions
		filters = e.body.Options.Filters
		if filters == nil {
			filters = defaults
		}
	} else {
		if len(e.raw) > 0 {
			s := string(e.raw)
			source = &s
		}
		options = e.query.Get("options")
		filters = FilterQuery{
			Filters:       e.query.Get("filters"),
			AddFilters:    e.query.Get("addFilters"),
			RemoveFilters: e.query.Get("removeFilters"),
		}.Resolve(defaults)
	}
	if source == nil {
		return nil, errs.BadRequest("no source provided")
	}
	tokens, err := ParseOptions(options)
	if err != nil {
		return nil, err
	}
	return &Normalized{
		Source:         *source,
		Options:        tokens,
		BackendOptions: backend,
		Filters:        filters,
	}, nil
}
