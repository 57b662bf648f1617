package compiler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_compiler/errs"
	"github.com/to404hanga/online_judge_compiler/model"
)

const fakeCompiler = `#!/bin/sh
if [ "$1" = "--version" ]; then
	echo "fakecc (FAKE) 13.2.0"
	echo "Copyright"
	exit 0
fi
out=""
while [ $# -gt 0 ]; do
	case "$1" in
	-fail) echo "example: error: expected ';'" >&2; exit 1 ;;
	-hang) sleep 5 ;;
	-masm=intel) echo "intel syntax" ;;
	-o) out="$2"; shift ;;
	esac
	shift
done
printf 'main:\n\tret\n' > "$out"
`

func writeFakeCompiler(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script compiler")
	}
	exe := filepath.Join(t.TempDir(), "fakecc")
	require.NoError(t, os.WriteFile(exe, []byte(fakeCompiler), 0755))
	return exe
}

func newFake(t *testing.T, timeout time.Duration) Compiler {
	t.Helper()
	cfg := model.CompilerConfig{ID: "fake13", Lang: "c", Exe: writeFakeCompiler(t), Type: TypeGCC, DefaultFilters: []string{"intel"}}
	c, err := NewLocal(context.Background(), cfg, NewEnvironment(t.TempDir(), 2, timeout), "c")
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func TestNewLocalProbesVersion(t *testing.T) {
	c := newFake(t, time.Second)
	info := c.Info()
	assert.Equal(t, "fakecc (FAKE) 13.2.0", info.Version)
	assert.Equal(t, "fake13", info.Name)
	assert.Equal(t, model.NewFilters("intel"), c.DefaultFilters())
}

func TestNewLocalMissingBinaryYieldsNothing(t *testing.T) {
	cfg := model.CompilerConfig{ID: "gone", Exe: filepath.Join(t.TempDir(), "nope"), Type: TypeGCC}
	c, err := NewLocal(context.Background(), cfg, NewEnvironment(t.TempDir(), 1, time.Second), "c")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestLocalCompile(t *testing.T) {
	c := newFake(t, time.Second)
	res, err := c.Compile(context.Background(), "int main(){}", []string{"-O2"}, nil, model.NewFilters("intel"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Code)
	assert.Equal(t, model.Lines("main:", "\tret"), res.Asm)
	assert.Equal(t, model.Lines("intel syntax"), res.Stdout)
	assert.Empty(t, res.Stderr)
}

func TestLocalCompileNonZeroExit(t *testing.T) {
	c := newFake(t, time.Second)
	res, err := c.Compile(context.Background(), "int main(){", []string{"-fail"}, nil, model.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Code)
	assert.Empty(t, res.Asm)
	assert.Equal(t, model.Lines("example: error: expected ';'"), res.Stderr)
}

func TestLocalCompileTimeout(t *testing.T) {
	c := newFake(t, 100*time.Millisecond)
	_, err := c.Compile(context.Background(), "", []string{"-hang"}, nil, model.Filters{})
	require.Error(t, err)
	e := errs.As(err)
	assert.Equal(t, errs.KindCompilation, e.Kind)
	assert.Equal(t, TimeoutCode, e.Code)
}

func TestSourceExtension(t *testing.T) {
	assert.Equal(t, ".c", SourceExtension(model.CompilerConfig{Lang: "c"}))
	assert.Equal(t, ".cc", SourceExtension(model.CompilerConfig{Lang: "c++", Extension: "cc"}))
	assert.Equal(t, ".cpp", SourceExtension(model.CompilerConfig{Lang: "c++"}))
}
