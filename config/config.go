package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"golang.org/x/mod/semver"
)

type Config struct {
	Dashboard Dashboard `mapstructure:"dashboard"`
	InCluster InCluster `mapstructure:"inCluster"`
	Server    Server    `mapstructure:"server"`
	Prefs     Prefs     `mapstructure:"prefs"`
}

type Dashboard struct {
	ThrottleInterval          time.Duration `mapstructure:"throttleInterval"`
	MonotonicResourceVersions bool          `mapstructure:"monotonicResourceVersions"`
	ErrorSuppressionWindow    time.Duration `mapstructure:"errorSuppressionWindow"`
	DefaultTheme              string        `mapstructure:"defaultTheme"`
	DefaultSidebarOpen        bool          `mapstructure:"defaultSidebarOpen"`
	PluginAPIVersion          string        `mapstructure:"pluginAPIVersion"`
	PluginsDir                string        `mapstructure:"pluginsDir"`
	PluginsReloadSchedule     string        `mapstructure:"pluginsReloadSchedule"`
	LogLevel                  string        `mapstructure:"logLevel"`
}

type InCluster struct {
	Kubeconfig     string     `mapstructure:"kubeconfig"`
	ResyncSchedule string     `mapstructure:"resyncSchedule"`
	Resources      []Resource `mapstructure:"resources"`
}

type Resource struct {
	Group     string          `mapstructure:"group"`
	Version   string          `mapstructure:"version"`
	Resource  string          `mapstructure:"resource"`
	Namespace string          `mapstructure:"namespace"`
	Strategy  domain.Strategy `mapstructure:"strategy"`
}

// String returns group/version/resource as a string.
func (r Resource) String() string {
	return strings.Join([]string{r.Group, r.Version, r.Resource}, "/")
}

func (r Resource) Kind() *domain.Kind {
	return &domain.Kind{Group: r.Group, Version: r.Version, Resource: r.Resource}
}

func (r Resource) Scope() domain.KindScope {
	return domain.KindScope{Kind: r.Kind(), Namespace: r.Namespace}
}

type Server struct {
	Port         int               `mapstructure:"port"`
	MessageRate  float64           `mapstructure:"messageRate"`
	MessageBurst int               `mapstructure:"messageBurst"`
	Prometheus   *PrometheusConfig `mapstructure:"prometheus"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

const (
	PrefsBackendMemory   = "memory"
	PrefsBackendFile     = "file"
	PrefsBackendPostgres = "postgres"
)

type Prefs struct {
	Backend     string `mapstructure:"backend"`
	Path        string `mapstructure:"path"`
	DatabaseURL string `mapstructure:"databaseUrl"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	if configPathFromEnv := os.Getenv("CONFIG_PATH"); configPathFromEnv != "" {
		v.AddConfigPath(configPathFromEnv)
	}
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("json")

	v.SetDefault("dashboard.throttleInterval", "1s")
	v.SetDefault("dashboard.monotonicResourceVersions", true)
	v.SetDefault("dashboard.errorSuppressionWindow", "30s")
	v.SetDefault("dashboard.defaultTheme", "light")
	v.SetDefault("dashboard.defaultSidebarOpen", true)
	v.SetDefault("dashboard.pluginAPIVersion", "v1.0.0")
	v.SetDefault("dashboard.pluginsReloadSchedule", "2s")
	v.SetDefault("dashboard.logLevel", "info")
	v.SetDefault("server.port", 4466)
	v.SetDefault("prefs.backend", PrefsBackendMemory)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return Config{}, err
	}

	var config Config
	err = v.Unmarshal(&config)
	return config, err
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var err error
	if c.Dashboard.ThrottleInterval < 0 {
		err = multierr.Append(err, fmt.Errorf("dashboard.throttleInterval must not be negative, got %s", c.Dashboard.ThrottleInterval))
	}
	if !semver.IsValid(c.Dashboard.PluginAPIVersion) {
		err = multierr.Append(err, fmt.Errorf("dashboard.pluginAPIVersion %q is not a semantic version", c.Dashboard.PluginAPIVersion))
	}
	for i, r := range c.InCluster.Resources {
		if r.Version == "" || r.Resource == "" {
			err = multierr.Append(err, fmt.Errorf("inCluster.resources[%d] needs a version and a resource, got %q", i, r.String()))
		}
		switch r.Strategy {
		case "", domain.CopyStrategy, domain.PatchStrategy:
		default:
			err = multierr.Append(err, fmt.Errorf("inCluster.resources[%d] has unknown strategy %q", i, r.Strategy))
		}
	}
	if c.Server.Port <= 0 {
		err = multierr.Append(err, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}
	switch c.Prefs.Backend {
	case PrefsBackendMemory, PrefsBackendFile:
	case PrefsBackendPostgres:
		if c.Prefs.DatabaseURL == "" {
			err = multierr.Append(err, errors.New("prefs.databaseUrl is required by the postgres backend"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown prefs.backend %q", c.Prefs.Backend))
	}
	return err
}
