package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/to404hanga/online_judge_compiler/model"
)

func TestParseOutput(t *testing.T) {
	raw := "\x1b[01m\x1b[K/tmp/ce123/example.c:1:1:\x1b[m\x1b[K error\r\nnext line\n"
	assert.Equal(t, []model.OutputLine{
		{Text: "<source>/example.c:1:1: error"},
		{Text: "next line"},
	}, ParseOutput(raw, "/tmp/ce123"))
}

func TestParseOutputEmpty(t *testing.T) {
	lines := LineParser{}.Parse("")
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}
