package models

// KubernetesConfig holds settings for the Kubernetes runner.
type KubernetesConfig struct {
	Namespace  string `yaml:"namespace"`
	Image      string `yaml:"image"`
	Cluster    string `yaml:"cluster"`
	Kubeconfig string `yaml:"kubeconfig"` // empty = in-cluster config
}

// SecretsConfig holds settings for the credential store.
type SecretsConfig struct {
	Store   string `yaml:"store"` // "local" | "gsm"
	Project string `yaml:"project"`
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	MaxAgeHours int `yaml:"max_age_hours"`
}

// LocalConfig holds settings for the local PTY runner.
type LocalConfig struct {
	Command string `yaml:"command"` // empty means lookup "gam" in PATH
}

// Settings represents global server settings.
// This corresponds to ~/.gamgui/settings.yaml.
type Settings struct {
	Version    int              `yaml:"version"`
	Runner     string           `yaml:"runner"` // "local" | "kubernetes"
	Local      LocalConfig      `yaml:"local"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Secrets    SecretsConfig    `yaml:"secrets"`
	Session    SessionConfig    `yaml:"session"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Runner:  "local",
		Local: LocalConfig{
			Command: "", // Empty means lookup in PATH
		},
		Kubernetes: KubernetesConfig{
			Namespace: "gamgui",
			Image:     "gam:latest",
		},
		Secrets: SecretsConfig{
			Store: "local",
		},
		Session: SessionConfig{
			MaxAgeHours: 24,
		},
	}
}
