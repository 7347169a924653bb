package config

import (
	"fmt"
	"os"
)

// InitConfig writes the default configuration to the default path and
// returns that path. An existing file is kept unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigAt(path, force)
}

// InitConfigAt writes the default configuration to path.
func InitConfigAt(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
	}
	return SaveConfig(GetDefaultConfig(), path)
}
