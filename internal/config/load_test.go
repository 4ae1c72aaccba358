package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDefinition(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeDefinition(t, `
name: tutorial
region: us-west-2
networks:
  - name: tutorial-net
    cidr: 10.2.0.0/16
    public_subnets:
      - 10.2.1.0/24
buckets:
  - name: tutorial-data
    versioning: true
instances:
  - name: tutorial-web
    type: t2.micro
    network: tutorial-net
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "tutorial", cfg.Name)
	assert.Equal(t, "us-west-2", cfg.Region)
	require.Len(t, cfg.Networks, 1)
	assert.Equal(t, "10.2.0.0/16", cfg.Networks[0].CIDR)
	require.Len(t, cfg.Instances, 1)
	assert.Equal(t, "tutorial-net", cfg.Instances[0].Network)
}

func TestLoadFileDefaults(t *testing.T) {
	t.Setenv("AWS_REGION", "")

	path := writeDefinition(t, `
name: minimal
networks:
  - name: minimal-net
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "10.0.0.0/16", cfg.Networks[0].CIDR)
}

func TestLoadFileRegionFromEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-central-1")

	path := writeDefinition(t, `
name: env-region
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", cfg.Region)
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "failed to read")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeDefinition(t, "name: [unclosed")
		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "unmarshal")
	})

	t.Run("validation failure", func(t *testing.T) {
		path := writeDefinition(t, `
name: broken
instances:
  - name: box
    network: missing
`)
		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "unknown network")
	})
}
