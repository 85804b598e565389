package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--email", "root@x.com", "--password", "s3cretpass", "--migrate"}, envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, "root@x.com", opts.email)
	assert.Equal(t, "Administrator", opts.name)
	assert.Equal(t, "s3cretpass", opts.password)
	assert.True(t, opts.migrate)
	assert.Equal(t, 30*time.Second, opts.timeout)
}

func TestParseFlags_PasswordFromEnv(t *testing.T) {
	opts, err := parseFlags([]string{"--email=root@x.com"}, envOf(map[string]string{passwordEnv: "fromenv1"}))
	require.NoError(t, err)
	assert.Equal(t, "fromenv1", opts.password)
}

func TestParseFlags_MissingRequired(t *testing.T) {
	_, err := parseFlags([]string{"--password", "x"}, envOf(nil))
	assert.ErrorContains(t, err, "--email")

	_, err = parseFlags([]string{"--email", "root@x.com"}, envOf(nil))
	assert.ErrorContains(t, err, passwordEnv)
}
