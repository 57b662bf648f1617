package service

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArchive(t *testing.T) {
	data, err := BuildArchive("/app", map[string][]byte{
		"example.cpp": []byte("int main(){}"),
		"extra.h":     []byte("#pragma once"),
	})
	require.NoError(t, err)

	tr := tar.NewReader(bytes.NewReader(data))
	got := map[string]string{}
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(tr)
		require.NoError(t, err)
		names = append(names, hdr.Name)
		got[hdr.Name] = string(b)
		assert.Equal(t, int64(0644), hdr.Mode)
	}
	assert.Equal(t, []string{"/app/example.cpp", "/app/extra.h"}, names)
	assert.Equal(t, "int main(){}", got["/app/example.cpp"])
}

func TestBuildArchiveEmpty(t *testing.T) {
	data, err := BuildArchive("/app", nil)
	require.NoError(t, err)
	_, err = tar.NewReader(bytes.NewReader(data)).Next()
	assert.Equal(t, io.EOF, err)
}
