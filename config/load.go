package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
)

func configFromFile(path string, config *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	p := json.NewDecoder(f)
	p.DisallowUnknownFields()
	return p.Decode(config)
}

// Load reads the JSON configuration at path on top of the defaults. An empty
// path yields the defaults. The result is validated and never changes
// afterwards.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	config := Default(home)
	if path != "" {
		if err := configFromFile(path, config); err != nil {
			return nil, fmt.Errorf("failed to load %v: %w", path, err)
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	log.Infof("Loaded configuration: %v", spew.Sdump(config))
	return config, nil
}
