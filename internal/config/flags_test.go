package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsed(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(parsed(t))
	require.NoError(t, err)

	want := &Config{}
	want.LoadDefaults()
	assert.Equal(t, want, cfg)
}

func TestLoad_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"object_store":    "memory",
		"principal_id":    "from-json",
		"principal_email": "json@example.com",
		"s3_timeout":      "1s",
	})

	cfg, err := Load(parsed(t,
		"-c", path,
		"--principal", "from-flag",
		"--s3-timeout", "7s",
		"--log-level", "debug",
	))
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.ObjectStore, "json value kept when flag not set")
	assert.Equal(t, "json@example.com", cfg.PrincipalEmail)
	assert.Equal(t, "from-flag", cfg.PrincipalID)
	assert.Equal(t, 7*time.Second, cfg.S3Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_AllStringFlags(t *testing.T) {
	cfg, err := Load(parsed(t,
		"--dsn", "postgres://flag",
		"--store", "s3",
		"--fs-root", "/tmp/v",
		"--s3-user", "u",
		"--s3-password", "p",
		"--s3-bucket", "b",
		"--s3-region", "r",
		"--s3-endpoint", "http://e",
		"--token-secret", "ts",
		"--token", "tok",
		"--email", "e@example.com",
		"--legacy-salt", "ls",
	))
	require.NoError(t, err)

	assert.Equal(t, "postgres://flag", cfg.DatabaseDSN)
	assert.Equal(t, StoreS3, cfg.ObjectStore)
	assert.Equal(t, "/tmp/v", cfg.FileStoreRoot)
	assert.Equal(t, "u", cfg.S3RootUser)
	assert.Equal(t, "p", cfg.S3RootPassword)
	assert.Equal(t, "b", cfg.S3Bucket)
	assert.Equal(t, "r", cfg.S3Region)
	assert.Equal(t, "http://e", cfg.S3BaseEndpoint)
	assert.Equal(t, "ts", cfg.TokenSecret)
	assert.Equal(t, "tok", cfg.AccessToken)
	assert.Equal(t, "e@example.com", cfg.PrincipalEmail)
	assert.Equal(t, "ls", cfg.LegacySalt)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(parsed(t, "-c", "/definitely/missing.json"))
	assert.Error(t, err)

	_, err = Load(parsed(t, "--store", "tape"))
	assert.ErrorContains(t, err, "unknown object store")

	fs := pflag.NewFlagSet("bare", pflag.ContinueOnError)
	_, err = Load(fs)
	assert.Error(t, err, "config flag must be registered")
}
