package compiler

import (
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/to404hanga/online_judge_compiler/model"
)

// OutputParser splits raw process output into lines.
type OutputParser interface {
	Parse(raw string) []model.OutputLine
}

type LineParser struct{}

func (LineParser) Parse(raw string) []model.OutputLine {
	return ParseOutput(raw, "")
}

// ParseOutput splits raw into lines with ANSI escapes removed. Occurrences
// of scratchDir are replaced with "<source>".
func ParseOutput(raw, scratchDir string) []model.OutputLine {
	lines := []model.OutputLine{}
	if raw == "" {
		return lines
	}
	raw = strings.TrimRight(raw, "\n")
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(stripansi.Strip(line), "\r")
		if scratchDir != "" {
			line = strings.ReplaceAll(line, scratchDir, "<source>")
		}
		lines = append(lines, model.OutputLine{Text: line})
	}
	return lines
}
