package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountPrefix(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"http://localhost:9090/Monolith":  "/Monolith",
		"http://localhost:9090/Monolith/": "/Monolith",
		"https://example.com":             "",
		"http://host/a/b":                 "/a/b",
	}
	for in, want := range cases {
		got, err := mountPrefix(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestReadLine(t *testing.T) {
	t.Parallel()
	got, err := readLine(bytes.NewBufferString("s3cret\r\nrest"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	got, err = readLine(bytes.NewBufferString("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)
}

func TestRootCommandTree(t *testing.T) {
	t.Parallel()
	for _, path := range [][]string{{"pixel"}, {"upload"}, {"engines"}, {"login"}, {"logout"}, {"dev", "serve"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}
