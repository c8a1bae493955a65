// Package cfgloader loads the environment-selected YAML configuration at
// process start.
//
// The flow is fail-fast: any problem with the config file, its defaults or
// its validation logs through slog and exits, since a service with broken
// configuration must not come up half-wired.
package cfgloader

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Recognized values of the ENVIRONMENT variable.
const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"
)

// MustLoad reads ./config/${ENVIRONMENT}.yaml into a fresh T and returns it.
//
// Processing order: .env via godotenv, ${VAR} expansion inside the file,
// YAML unmarshal (`yaml` tags), `default` tags via creasty/defaults, then
// `validate` tags via go-playground/validator. Any failure exits the
// process with a message on slog.
//
// After a successful load the resolved config is printed to stdout with
// `mask:"true"` fields redacted; WithSilent suppresses the print.
//
// Example:
//
//	type Config struct {
//	    Host     string `yaml:"host" validate:"required"`
//	    Port     int    `yaml:"port" default:"8080"`
//	    LogLevel string `yaml:"log_level" default:"info"`
//	}
func MustLoad[T any](opts ...Option) T {
	var config T

	if reflect.ValueOf(config).Kind() == reflect.Ptr {
		fail("arg config must not be a pointer")
	}

	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}

	_ = godotenv.Load()

	env := requireEnvironment()
	raw := readConfigFile(env)

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &config); err != nil {
		fail(fmt.Sprintf("failed to unmarshal %s config file: %v", env, err))
	}

	if err := defaults.Set(&config); err != nil {
		fail(fmt.Sprintf("failed to set default values for config: %s", err))
	}

	validateConfig(&config, env)

	if !options.Silent {
		printConfig(&config)
	}

	return config
}

func requireEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	valid := []string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}
	if !slices.Contains(valid, env) {
		fail("ENVIRONMENT env variable is not set or invalid. Choices are: " + strings.Join(valid, ", "))
	}
	return env
}

func readConfigFile(env string) []byte {
	path := fmt.Sprintf("./config/%s.yaml", env)

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		fail(fmt.Sprintf(
			"config file not found in the path %s - Make sure that the yaml file exists for each environment", path,
		))
	case err != nil:
		fail(fmt.Sprintf("failed to read config file %s: %v", path, err))
	}
	return data
}

func validateConfig(config any, env string) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(config)

	var failed []string
	if errs, ok := err.(validator.ValidationErrors); ok { //nolint:errorlint // validator returns this concrete type
		for _, fieldErr := range errs {
			rule := fieldErr.Tag()
			if fieldErr.Param() != "" {
				rule += "=" + fieldErr.Param()
			}
			failed = append(failed, fmt.Sprintf("%s: %s", fieldErr.Namespace(), rule))
		}
	}

	if len(failed) > 0 {
		fail(fmt.Sprintf("invalid fields in %s config -> %s", env, strings.Join(failed, ",  ")))
	}
}

func fail(msg string) {
	slog.Error("[cfgloader]: " + msg)
	os.Exit(1)
}
