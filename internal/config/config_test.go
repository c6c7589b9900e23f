package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Equal(t, Default(), cfg)
}

func TestLoadInvalidYAMLReturnsDefaults(t *testing.T) {
	path := writeFile(t, "default_report: [unclosed\n")
	cfg := Load(path)
	require.Equal(t, Default(), cfg)
}

func TestLoadPartialFileOverridesOnlyNamedKeys(t *testing.T) {
	path := writeFile(t, "default_report: overdue\n")
	cfg := Load(path)

	require.Equal(t, "overdue", cfg.DefaultReport)
	require.Equal(t, Default().Hotkeys, cfg.Hotkeys)
	require.Equal(t, Default().DefaultDateFields, cfg.DefaultDateFields)
	require.Equal(t, Default().Keys, cfg.Keys)
}

func TestLoadHotkeysReplaceWholesale(t *testing.T) {
	path := writeFile(t, "hotkeys:\n  \"7\": \"+1w\"\n")
	cfg := Load(path)

	require.Equal(t, map[string]string{"7": "+1w"}, cfg.Hotkeys)
}

func TestLoadDateFieldsAndConfirm(t *testing.T) {
	path := writeFile(t, "default_date_fields: [due, wait]\nconfirm_before_schedule: true\n")
	cfg := Load(path)

	require.Equal(t, []string{"due", "wait"}, cfg.DefaultDateFields)
	require.True(t, cfg.ConfirmBeforeSchedule)
}

func TestLoadKeymapMergesOverDefaults(t *testing.T) {
	path := writeFile(t, "keys:\n  quit: Q\n")
	cfg := Load(path)

	require.Equal(t, "Q", cfg.Keys.Quit)
	require.Equal(t, "k", cfg.Keys.Up)
	require.Equal(t, "tab", cfg.Keys.Select)
}

func TestResolvePathEnvOverride(t *testing.T) {
	t.Setenv(EnvConfigFile, "/tmp/custom.yaml")
	require.Equal(t, "/tmp/custom.yaml", ResolvePath())
}

func TestResolvePathXDG(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	require.Equal(t, filepath.Join("/tmp/xdg", "schedule", DefaultConfigFileName), ResolvePath())
}
