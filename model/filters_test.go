package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiltersEnabled(t *testing.T) {
	f := NewFilters("b", "a", "")
	f["c"] = false
	assert.Equal(t, []string{"a", "b"}, f.Enabled())
	assert.True(t, f.Has("a"))
	assert.False(t, f.Has("c"))
}

func TestFiltersCloneIsIndependent(t *testing.T) {
	f := NewFilters("intel")
	c := f.Clone()
	c["binary"] = true
	assert.False(t, f.Has("binary"))
}

func TestHasRealExe(t *testing.T) {
	assert.True(t, CompilerConfig{Exe: "/usr/bin/gcc"}.HasRealExe())
	assert.False(t, CompilerConfig{Exe: "gcc"}.HasRealExe())
	assert.False(t, CompilerConfig{}.HasRealExe())
}
