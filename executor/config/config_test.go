package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageFor(t *testing.T) {
	img, ok := ImageFor("clang:17", "c++")
	assert.True(t, ok)
	assert.Equal(t, "clang:17", img)

	img, ok = ImageFor("", "c")
	assert.True(t, ok)
	assert.Equal(t, "gcc:13", img)

	_, ok = ImageFor("", "cobol")
	assert.False(t, ok)
}
