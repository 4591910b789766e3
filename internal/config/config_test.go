package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg := load("no-such-config.json", nil)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "ermapa.db", cfg.DBPath)
}

func TestLoadJSONLayer(t *testing.T) {
	path := writeConfig(t, "config.json", `{"port": "9000", "watchDir": "imports"}`)
	cfg := load(path, nil)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "imports", cfg.WatchDir)
	// незатронутые ключи остаются дефолтными
	assert.Equal(t, "ermapa.db", cfg.DBPath)
}

func TestLoadEnvOverridesJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"port": "9000"}`)
	t.Setenv("ERMAPA_PORT", "9100")
	cfg := load(path, nil)
	assert.Equal(t, "9100", cfg.Port)
}

func TestLoadFlagOverridesAll(t *testing.T) {
	path := writeConfig(t, "config.json", `{"port": "9000"}`)
	t.Setenv("ERMAPA_PORT", "9100")
	cfg := load(path, []string{"-port", "9200"})
	assert.Equal(t, "9200", cfg.Port)
}

func TestLoadAlternateConfigFlag(t *testing.T) {
	alt := writeConfig(t, "alt.json", `{"port": "7777", "dbPath": "alt.db"}`)

	// флаг -config перечитывает базовые слои от другого файла,
	// без паники и без потери остальных флагов
	cfg := load("config.json", []string{"-config", alt, "-port", "7001"})
	assert.Equal(t, "7001", cfg.Port) // явный флаг сильнее alt.json
	assert.Equal(t, "alt.db", cfg.DBPath)
	assert.Equal(t, "reference/catalogs", cfg.CatalogsDir)
}

func TestLoadWithPathReentrant(t *testing.T) {
	// повторный вызов не падает на переопределении флагов
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"ermapa"}

	_ = LoadWithPath("config.json")
	assert.NotPanics(t, func() { _ = LoadWithPath("config.json") })
}
