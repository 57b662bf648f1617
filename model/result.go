package model

// OutputLine is one line of compiler output.
type OutputLine struct {
	Text string `json:"text"`
}

// CompilationResult is produced once per request by a compiler and is not
// modified afterwards.
type CompilationResult struct {
	Code   int          `json:"code"`
	Stdout []OutputLine `json:"stdout"`
	Stderr []OutputLine `json:"stderr"`
	Asm    []OutputLine `json:"asm,omitempty"`
}

// Lines wraps raw strings as output lines.
func Lines(texts ...string) []OutputLine {
	out := make([]OutputLine, 0, len(texts))
	for _, t := range texts {
		out = append(out, OutputLine{Text: t})
	}
	return out
}
