package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName    = "textpolish"
	jsoncFileName = "config.jsonc"
	tomlFileName  = "config.toml"
)

// ResolvePath applies CLI/XDG/home fallback rules for config.jsonc location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDirName, jsoncFileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", appDirName, jsoncFileName), nil
}

// tomlSibling returns the config.toml path next to an implicit config.jsonc path.
func tomlSibling(jsoncPath string) string {
	return filepath.Join(filepath.Dir(jsoncPath), tomlFileName)
}
