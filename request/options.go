package request

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/to404hanga/online_judge_compiler/errs"
)

// ParseOptions splits a shell-style argument string into tokens. Blank
// tokens are dropped.
func ParseOptions(options string) ([]string, error) {
	tokens := []string{}
	if strings.TrimSpace(options) == "" {
		return tokens, nil
	}
	words, err := shellquote.Split(options)
	if err != nil {
		return nil, errs.BadRequest("invalid options %q: %v", options, err)
	}
	for _, w := range words {
		if strings.TrimSpace(w) != "" {
			tokens = append(tokens, w)
		}
	}
	return tokens, nil
}
