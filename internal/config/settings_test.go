package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("GAMGUI_HOME", t.TempDir())

	s, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "local", s.Runner)
	assert.Equal(t, "gamgui", s.Kubernetes.Namespace)
	assert.Equal(t, "gam:latest", s.Kubernetes.Image)
	assert.Equal(t, "local", s.Secrets.Store)
	assert.Equal(t, 24, s.Session.MaxAgeHours)
}

func TestSaveAndLoadSettings(t *testing.T) {
	t.Setenv("GAMGUI_HOME", t.TempDir())
	require.NoError(t, EnsureGlobalDir())

	s, err := LoadSettings()
	require.NoError(t, err)
	s.Runner = "kubernetes"
	s.Kubernetes.Cluster = "prod-cluster"
	require.NoError(t, SaveSettings(s))

	loaded, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "kubernetes", loaded.Runner)
	assert.Equal(t, "prod-cluster", loaded.Kubernetes.Cluster)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("GAMGUI_HOME", t.TempDir())
	require.NoError(t, EnsureGlobalDir())

	s, err := LoadSettings()
	require.NoError(t, err)
	s.Kubernetes.Image = "gam:file"
	require.NoError(t, SaveSettings(s))

	t.Setenv(EnvGAMImage, "gam:env")
	loaded, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "gam:env", loaded.Kubernetes.Image)
}
