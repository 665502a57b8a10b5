package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gamgui-io/gamgui/internal/models"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvProjectID, "my-project")
	t.Setenv(EnvK8sNamespace, "gam-prod")
	t.Setenv(EnvGKECluster, "cluster-1")
	t.Setenv(EnvGAMImage, "gcr.io/my-project/gam:7")
	t.Setenv(EnvRunner, "kubernetes")
	t.Setenv(EnvSecretsStore, "gsm")
	t.Setenv(EnvMaxSessionAge, "8")

	s := models.NewSettings()
	ApplyEnv(s)

	assert.Equal(t, "my-project", s.Secrets.Project)
	assert.Equal(t, "gam-prod", s.Kubernetes.Namespace)
	assert.Equal(t, "cluster-1", s.Kubernetes.Cluster)
	assert.Equal(t, "gcr.io/my-project/gam:7", s.Kubernetes.Image)
	assert.Equal(t, "kubernetes", s.Runner)
	assert.Equal(t, "gsm", s.Secrets.Store)
	assert.Equal(t, 8, s.Session.MaxAgeHours)
}

func TestApplyEnvLeavesDefaults(t *testing.T) {
	for _, key := range []string{EnvProjectID, EnvK8sNamespace, EnvGKECluster, EnvGAMImage, EnvRunner, EnvSecretsStore, EnvMaxSessionAge} {
		t.Setenv(key, "")
	}

	s := models.NewSettings()
	ApplyEnv(s)

	assert.Equal(t, "local", s.Runner)
	assert.Equal(t, "gamgui", s.Kubernetes.Namespace)
	assert.Equal(t, 24, s.Session.MaxAgeHours)
}

func TestApplyEnvRejectsBadMaxAge(t *testing.T) {
	t.Setenv(EnvMaxSessionAge, "not-a-number")

	s := models.NewSettings()
	ApplyEnv(s)
	assert.Equal(t, 24, s.Session.MaxAgeHours)
}

func TestPortFromEnv(t *testing.T) {
	t.Setenv(EnvPort, "")
	assert.Equal(t, 8080, PortFromEnv(8080))

	t.Setenv(EnvPort, "9000")
	assert.Equal(t, 9000, PortFromEnv(8080))

	t.Setenv(EnvPort, "oops")
	assert.Equal(t, 8080, PortFromEnv(8080))
}
