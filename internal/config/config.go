// Package config is used to load the configuration file
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultTimeout bounds each external command when none is configured.
const DefaultTimeout = 30 * time.Second

type vault struct {
	Dir string `mapstructure:"dir"`
}

// Config is the configuration struct
type Config struct {
	Timeout time.Duration     `mapstructure:"timeout"`
	Tools   map[string]string `mapstructure:"tools"`
	Images  string            `mapstructure:"images"`
	Shares  string            `mapstructure:"shares"`
	Vault   vault             `mapstructure:"vault"`
}

// Dir returns the directory holding config.yaml.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: failed to get user home directory: %v", err)
	}
	return filepath.Join(home, ".config", "darwinist"), nil
}

func (c *Config) verify() error {
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative: %s", c.Timeout)
	} else if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	for tool, path := range c.Tools {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("config: path for tool %s must be absolute: %q", tool, path)
		}
	}

	if c.Images == "" || c.Shares == "" || c.Vault.Dir == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if c.Images == "" {
			c.Images = filepath.Join(dir, "diskimages.yaml")
		}
		if c.Shares == "" {
			c.Shares = filepath.Join(dir, "afpshares.yaml")
		}
		if c.Vault.Dir == "" {
			c.Vault.Dir = dir
		}
	}

	return nil
}

// Load unmarshals and verifies the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %v", err)
	}

	if err := c.verify(); err != nil {
		return nil, fmt.Errorf("config: failed to verify: %v", err)
	}

	return &c, nil
}

// LoadConfig loads the configuration file
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}
