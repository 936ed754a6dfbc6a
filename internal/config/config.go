// Package config gets the settings of the clubql server from a YAML file, environment
// variables (which may be set in a .env file) and defaults, in that order of precedence:
// environment variables override the file which overrides the defaults.
package config

// config.go declares the Config type and loads it

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file
const (
	EnvAddress       = "CLUBQL_ADDRESS"
	EnvPath          = "CLUBQL_PATH"
	EnvSeed          = "CLUBQL_SEED"
	EnvConsole       = "CLUBQL_CONSOLE"
	EnvIntrospection = "CLUBQL_INTROSPECTION"
	EnvCORSOrigins   = "CLUBQL_CORS_ORIGINS" // comma separated
)

type (
	// Config holds all the server settings
	Config struct {
		Address       string   `yaml:"address" validate:"required"`
		Path          string   `yaml:"path" validate:"required,startswith=/"`
		Seed          string   `yaml:"seed"` // YAML file of initial clubs and players (built-in data if empty)
		Console       bool     `yaml:"console"`
		Introspection bool     `yaml:"introspection"`
		CORSOrigins   []string `yaml:"cors_origins" validate:"dive,required"`

		// Read and write timeouts of zero mean no timeout. Note that a write timeout also
		// limits how long a websocket connection can stay open.
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"gte=0"`
		ReadTimeout       time.Duration `yaml:"read_timeout" validate:"gte=0"`
		WriteTimeout      time.Duration `yaml:"write_timeout" validate:"gte=0"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

		WS WS `yaml:"ws"`
	}

	// WS has the websocket (subscription) settings - zero means use the handler default
	WS struct {
		InitialTimeout time.Duration `yaml:"initial_timeout" validate:"gte=0"`
		PingFrequency  time.Duration `yaml:"ping_frequency" validate:"gte=0"`
		PongTimeout    time.Duration `yaml:"pong_timeout" validate:"gte=0"`
	}
)

// Default returns the settings used when there is no config file or environment variables
func Default() *Config {
	return &Config{
		Address:           ":5000",
		Path:              "/graphql",
		Console:           true,
		Introspection:     true,
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   15 * time.Second,
	}
}

// Load returns the configuration from the YAML file at path (if not empty) and the
// environment. If envFile is not empty and the file exists it is used to set
// environment variables that are not already set.
func Load(path, envFile string) (*Config, error) {
	c := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w opening config file", err)
		}
		defer f.Close()
		if err := c.Decode(f); err != nil {
			return nil, fmt.Errorf("%w in config file %q", err, path)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w loading %q", err, envFile)
		}
	}
	if err := c.FromEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Decode reads YAML settings into the config - settings not in the document are unchanged
func (c *Config) Decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// FromEnv overrides settings with environment variables, using lookup (eg os.LookupEnv)
func (c *Config) FromEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddress); ok {
		c.Address = v
	}
	if v, ok := lookup(EnvPath); ok {
		c.Path = v
	}
	if v, ok := lookup(EnvSeed); ok {
		c.Seed = v
	}
	for name, p := range map[string]*bool{EnvConsole: &c.Console, EnvIntrospection: &c.Introspection} {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("environment variable %s: %q is not a Boolean", name, v)
		}
		*p = b
	}
	if v, ok := lookup(EnvCORSOrigins); ok {
		c.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.CORSOrigins = append(c.CORSOrigins, origin)
			}
		}
	}
	return nil
}

var validate = newValidator()

// newValidator returns a validator that uses the YAML names of fields in error messages
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the settings, returning an error describing all invalid ones
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, formatError(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

func formatError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than zero (got %v)", field, fe.Value())
	case "gte":
		return fmt.Sprintf("%s must not be negative (got %v)", field, fe.Value())
	}
	return fmt.Sprintf("%s failed check %q", field, fe.Tag())
}
