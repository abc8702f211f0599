// Package config loads console settings. Environment variables
// (ELETRON_API_BUSINESS_URL, ELETRON_LIST_PAGE_SIZE, ...) override an optional
// eletron.yaml, which overrides the defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	API         APIConfig
	Session     SessionConfig
	List        ListConfig
	Logging     LoggingConfig
}

type APIConfig struct {
	BusinessURL string        `mapstructure:"business_url"`
	LegacyURL   string        `mapstructure:"legacy_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	StateDir      string        `mapstructure:"state_dir"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

type ListConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type LoggingConfig struct {
	Level string
	File  string
}

// Load reads the configuration. With no paths it looks in the working
// directory and ~/.eletron.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("eletron")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "$HOME/.eletron"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("ELETRON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			expandHomeHook(),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.Session.StateDir, "eletron.log")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("api.business_url", "http://localhost:8080/api/business")
	v.SetDefault("api.legacy_url", "http://localhost:8081/api/legacy")
	v.SetDefault("api.timeout", "30s")

	v.SetDefault("session.state_dir", "~/.eletron")
	v.SetDefault("session.check_interval", "60s")

	v.SetDefault("list.page_size", 10)

	v.SetDefault("logging.level", "")
	v.SetDefault("logging.file", "")
}

// expandHomeHook replaces a leading "~/" in string values with the home directory.
func expandHomeHook() mapstructure.DecodeHookFuncKind {
	return func(_, _ reflect.Kind, data any) (any, error) {
		s, ok := data.(string)
		if !ok || !strings.HasPrefix(s, "~/") {
			return data, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", s, err)
		}
		return filepath.Join(home, s[2:]), nil
	}
}

func (c *Config) validate() error {
	var errs []error
	for _, f := range []struct{ name, raw string }{
		{"api.business_url", c.API.BusinessURL},
		{"api.legacy_url", c.API.LegacyURL},
	} {
		u, err := url.Parse(f.raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s: %q is not an absolute URL", f.name, f.raw))
		}
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}
	if c.Session.CheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("session.check_interval must be positive, got %s", c.Session.CheckInterval))
	}
	if c.List.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("list.page_size must be positive, got %d", c.List.PageSize))
	}
	if c.Session.StateDir == "" {
		errs = append(errs, errors.New("session.state_dir must be set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
