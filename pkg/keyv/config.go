package keyv

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names understood by Open. Each is enabled by importing the
// corresponding adapter package.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendSQLite   = "sqlite"
	BackendMongo    = "mongodb"
	BackendBolt     = "bolt"
)

// Config carries the construction parameters shared by all adapters.
type Config struct {
	Backend    string
	URI        string
	Table      string
	Namespace  string
	DefaultTTL time.Duration
	PoolSize   int
}

// LoadConfig loads the config from a file if one is specified, otherwise from
// the environment under the given prefix (e.g. KEYV_BACKEND, KEYV_URI).
func LoadConfig(envPrefix string) (*Config, error) {
	v := viper.New()

	// Setting defaults for this application
	v.SetDefault("backend", BackendMemory)
	v.SetDefault("uri", "")
	v.SetDefault("table", "")
	v.SetDefault("namespace", "")
	v.SetDefault("defaultTTL", time.Duration(0))
	v.SetDefault("poolSize", 0)
	v.SetDefault("configFile", "")

	// Read Config from ENV
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// Read Config from file
	if configFile := v.GetString("configFile"); configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

var uriSchemes = map[string][]string{
	BackendRedis:    {"redis", "rediss"},
	BackendPostgres: {"postgres", "postgresql"},
	BackendMongo:    {"mongodb", "mongodb+srv"},
}

// Validate checks the backend name and the URI shape for it.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil

	case BackendSQLite, BackendBolt:
		if c.URI == "" {
			return fmt.Errorf("%w: %s backend requires a file path", ErrConfig, c.Backend)
		}
		return nil

	case BackendMySQL:
		// MySQL DSNs ("user:pass@tcp(host)/db") are not URLs; the driver
		// validates the full grammar at connect time.
		if c.URI == "" {
			return fmt.Errorf("%w: mysql backend requires a DSN", ErrConfig)
		}
		return nil

	case BackendRedis, BackendPostgres, BackendMongo:
		if c.URI == "" {
			return fmt.Errorf("%w: %s backend requires a connection URI", ErrConfig, c.Backend)
		}

		parsed, err := url.Parse(c.URI)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}

		for _, scheme := range uriSchemes[c.Backend] {
			if parsed.Scheme == scheme {
				return nil
			}
		}
		return fmt.Errorf("%w: unexpected scheme %q for %s backend", ErrConfig, parsed.Scheme, c.Backend)

	default:
		return fmt.Errorf("%w: unknown backend %q", ErrConfig, c.Backend)
	}
}
