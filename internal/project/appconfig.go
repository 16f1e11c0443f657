package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

// DefaultConfigDir returns the default directory for application data.
// On all platforms this is ~/.drapecalc/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".drapecalc")
}

// ConfigPath returns the path of the config file inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, "config.json")
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeJSON(path, config)
}

// LoadAppConfig reads an AppConfig from the given path.
// If the file does not exist, it returns DefaultAppConfig with no error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, err
	}
	// Start from defaults so fields missing from older files keep sane values
	config := model.DefaultAppConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, err
	}
	normalizeConfig(&config)
	return config, nil
}

func normalizeConfig(config *model.AppConfig) {
	if config.RecentQuotes == nil {
		config.RecentQuotes = []string{}
	}
	if config.Markup.CategoryMarkups == nil {
		config.Markup.CategoryMarkups = map[string]float64{}
	}
	if config.Markup.SubcategoryMarkups == nil {
		config.Markup.SubcategoryMarkups = map[string]float64{}
	}
}

func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
