package config

import (
	"github.com/gamgui-io/gamgui/internal/models"
)

// LoadSettings loads the global settings from ~/.gamgui/settings.yaml and
// applies environment overrides. If the file doesn't exist, returns default
// settings (with overrides applied).
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	settings, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	ApplyEnv(settings)
	return settings, nil
}

// SaveSettings saves the global settings to ~/.gamgui/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}
