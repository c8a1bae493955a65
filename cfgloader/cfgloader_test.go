package cfgloader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiancms/mediacore/cfgloader"
)

type dbConfig struct {
	Host     string `yaml:"host"     validate:"required"`
	Port     int    `yaml:"port"     default:"5432"`
	Password string `yaml:"password" mask:"true"`
}

type testConfig struct {
	ServiceName string   `yaml:"service_name" validate:"required"`
	LogLevel    string   `yaml:"log_level"    default:"info"`
	DB          dbConfig `yaml:"db"`
}

func writeConfigFile(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(body), 0o600))
	t.Chdir(dir)
	t.Setenv("ENVIRONMENT", cfgloader.EnvTest)
}

func TestMustLoad(t *testing.T) {
	writeConfigFile(t, `
service_name: mediacore
db:
  host: localhost
  port: 6432
  password: ${TEST_DB_PASSWORD}
`)
	t.Setenv("TEST_DB_PASSWORD", "s3cret")

	cfg := cfgloader.MustLoad[testConfig](cfgloader.WithSilent())

	assert.Equal(t, "mediacore", cfg.ServiceName)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 6432, cfg.DB.Port)
	assert.Equal(t, "s3cret", cfg.DB.Password, "env vars must be expanded before unmarshal")
}

func TestMustLoadAppliesDefaults(t *testing.T) {
	writeConfigFile(t, `
service_name: mediacore
db:
  host: localhost
`)

	cfg := cfgloader.MustLoad[testConfig](cfgloader.WithSilent())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5432, cfg.DB.Port)
}
