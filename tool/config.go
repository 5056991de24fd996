package tool

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/daikurogo/ipywidgets/types"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

func DefaultConfig() types.AppConfig {
	return types.AppConfig{
		Port:               8765,
		Protocol:           "http",
		PickDir:            "inbox",
		Description:        "Upload",
		Icon:               "upload",
		MaxConcurrentReads: 0,
		MaxUploadBytes:     64 << 20,
		UploadRatePerSec:   5,
		NotifySocket:       "/tmp/ipywidgets-upload-notify.sock",
	}
}

// LoadConfig reads path over the defaults. A missing file is created with the defaults.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := DefaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %w", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if _, err := types.ParseButtonStyle(cfg.ButtonStyle); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Protocol != "http" && cfg.Protocol != "https" {
		return cfg, fmt.Errorf("invalid config: protocol must be http or https, got %q", cfg.Protocol)
	}
	if cfg.MaxConcurrentReads < 0 {
		return cfg, fmt.Errorf("invalid config: maxConcurrentReads must be >= 0")
	}

	CurrentConfig = cfg
	return cfg, nil
}

func writeConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SaveConfig persists cfg to the loaded config path and makes it current.
func SaveConfig(cfg types.AppConfig) error {
	if err := writeConfig(ConfigPath, cfg); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	CurrentConfig = cfg
	return nil
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}
