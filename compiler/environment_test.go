package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentBusy(t *testing.T) {
	env := NewEnvironment(t.TempDir(), 2, time.Second)
	assert.False(t, env.IsBusy())

	release, err := env.Enter(context.Background())
	require.NoError(t, err)
	assert.True(t, env.IsBusy())

	release()
	release()
	assert.False(t, env.IsBusy())
}

func TestEnvironmentEnterRespectsContext(t *testing.T) {
	env := NewEnvironment(t.TempDir(), 1, time.Second)
	release, err := env.Enter(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = env.Enter(ctx)
	require.Error(t, err)
	assert.True(t, env.IsBusy())
}

func TestNewScratchDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested")
	env := NewEnvironment(root, 1, time.Second)
	dir, err := env.NewScratchDir()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(dir), ScratchPrefix))
	_, err = os.Stat(dir)
	require.NoError(t, err)
}
