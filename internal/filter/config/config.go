package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/s1-filter/internal/filter/repos/rules"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// RulesFile is the YAML, JSON or TOML file holding the whitelist and blacklist.
	RulesFile string `koanf:"rules_file" validate:"required,rules_format"`

	// SnapshotDB is the bbolt file for the last-known-good rule snapshot.
	// Empty disables snapshots.
	SnapshotDB string `koanf:"snapshot_db"`

	// CacheSize is the decision cache capacity. Zero disables caching.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// Watch reloads the rules whenever RulesFile changes on disk.
	Watch bool `koanf:"watch"`

	// MetricsAddr is the host:port the Prometheus handler listens on.
	// Empty disables the metrics server.
	MetricsAddr string `koanf:"metrics_addr" validate:"omitempty,hostname_port"`
}

// DEFAULT_APP_CONFIG defines the default application configuration settings.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:         "prod",
	LogLevel:    "info",
	RulesFile:   "stage1_rules.yaml",
	SnapshotDB:  "",
	CacheSize:   1000,
	Watch:       false,
	MetricsAddr: "",
}

// validRulesFormat reports whether the rule file has an extension a parser exists for.
func validRulesFormat(fl validator.FieldLevel) bool {
	_, err := rules.ParserFor(fl.Field().String())
	return err == nil
}

// envLoader loads environment variables with the prefix "S1_", lowercasing
// the keys and stripping the prefix. It can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "S1_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "S1_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG into k through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "rules_format" tag with the provided validator.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("rules_format", validRulesFormat)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
