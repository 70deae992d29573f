package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORT", "WORD_LIST", "LOG_LEVEL", "LOG_FORMAT", "GCP_PROJECT_ID", "GCP_REGION",
		"GEMINI_MODEL", "AWS_REGION", "MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY",
		"MIN_WORD_LENGTH", "SOLVE_WORKERS", "MINIO_SECURE",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "boggle.hcl")
	require.NoError(t, os.WriteFile(p, []byte(`
port            = "9090"
word_list       = "s3://dictionaries/scrabble.txt.gz"
min_word_length = 4
solve_workers   = 2
log_format      = "json"

storage {
  aws_region     = "eu-west-3"
  minio_endpoint = "localhost:9000"
}
`), 0o644))

	clearEnv(t)
	t.Setenv("SOLVE_WORKERS", "8")
	t.Setenv("MINIO_SECURE", "true")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "s3://dictionaries/scrabble.txt.gz", cfg.WordList)
	assert.Equal(t, 4, cfg.MinWordLength)
	assert.Equal(t, 8, cfg.SolveWorkers, "env overrides file")
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel, "default kept")
	assert.Equal(t, "eu-west-3", cfg.Storage.AWSRegion)
	assert.Equal(t, "localhost:9000", cfg.Storage.MinioEndpoint)
	assert.True(t, cfg.Storage.MinioSecure)
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(p, []byte(`port = `), 0o644))
	_, err := LoadConfig(p)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)

	t.Setenv("MIN_WORD_LENGTH", "three")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "MIN_WORD_LENGTH")
}
