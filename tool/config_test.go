package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daikurogo/ipywidgets/types"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)
	assert.Equal(t, cfg, *GetCurrentConfig())
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accept: .png\nmultiple: true\nbuttonStyle: success\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ".png", cfg.Accept)
	assert.True(t, cfg.Multiple)
	assert.Equal(t, "success", cfg.ButtonStyle)
	assert.Equal(t, "Upload", cfg.Description)
	assert.Equal(t, "http", cfg.Protocol)
}

func TestLoadConfigValidates(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"style.yaml":    "buttonStyle: neon\n",
		"reads.yaml":    "maxConcurrentReads: -1\n",
		"protocol.yaml": "protocol: ftp\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err, name)
	}
	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "directory")
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := DefaultConfig()
	ApplyFlagOverrides(&cfg, types.Config{UsePort: 9000, UseHttps: true, UsePickDir: "/srv/in", UseMultiple: true})
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "https", cfg.Protocol)
	assert.Equal(t, "/srv/in", cfg.PickDir)
	assert.True(t, cfg.Multiple)
}

func TestSaveConfig(t *testing.T) {
	old := ConfigPath
	ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { ConfigPath = old })

	cfg := DefaultConfig()
	cfg.Tooltip = "drop files here"
	require.NoError(t, SaveConfig(cfg))

	loaded, err := LoadConfig(ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "drop files here", loaded.Tooltip)
}
