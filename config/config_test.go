package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "asana", cfg.Provider)
	assert.Equal(t, 4, cfg.Thresholds.MaxAdmins)
	assert.Equal(t, 365, cfg.Thresholds.StaleDays)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	content := `version: "1"
provider: asana
workspace: Acme
data_dir: /var/lib/vigil
output: json
thresholds:
  max_admins: 2
  stale_days: 90
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Acme", cfg.Workspace)
	assert.Equal(t, "/var/lib/vigil", cfg.DataDir)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, 2, cfg.Thresholds.MaxAdmins)
	assert.Equal(t, 90, cfg.Thresholds.StaleDays)
}

func TestLoadConfig_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\nprovider: asana\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ".vigil", cfg.DataDir)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, 4, cfg.Thresholds.MaxAdmins)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("bad output format", func(t *testing.T) {
		cfg := Default()
		cfg.Output = "xml"
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative threshold", func(t *testing.T) {
		cfg := Default()
		cfg.Thresholds.MaxAdmins = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing provider", func(t *testing.T) {
		cfg := Default()
		cfg.Provider = ""
		assert.Error(t, cfg.Validate())
	})
}
