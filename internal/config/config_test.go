package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", "/Users/tester")

	c, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Equal(t, filepath.Join("/Users/tester", ".config", "darwinist", "diskimages.yaml"), c.Images)
	assert.Equal(t, filepath.Join("/Users/tester", ".config", "darwinist", "afpshares.yaml"), c.Shares)
	assert.Equal(t, filepath.Join("/Users/tester", ".config", "darwinist"), c.Vault.Dir)
}

func TestLoadFile(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
timeout: 5s
images: /Volumes/Data/images.yaml
shares: /Volumes/Data/shares.yaml
tools:
  airport: /usr/local/bin/airport
vault:
  dir: /tmp/vault
`)))

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, "/Volumes/Data/images.yaml", c.Images)
	assert.Equal(t, "/Volumes/Data/shares.yaml", c.Shares)
	assert.Equal(t, map[string]string{"airport": "/usr/local/bin/airport"}, c.Tools)
	assert.Equal(t, "/tmp/vault", c.Vault.Dir)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
	}{
		{"negative timeout", map[string]any{"timeout": "-1s"}},
		{"relative tool path", map[string]any{"tools": map[string]string{"ps": "bin/ps"}}},
		{"bad duration", map[string]any{"timeout": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
