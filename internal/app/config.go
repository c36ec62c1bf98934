package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete terminal configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string        `default:"127.0.0.1:8085" usage:"terminal listen address"`
	APIBaseURL     string        `usage:"remote café API base URL (POS_API_BASE_URL)" flag:"api-base-url"`
	RequestTimeout time.Duration `default:"8s" usage:"timeout for each remote API call" flag:"request-timeout"`
	StatePath      string        `usage:"path of the persisted order snapshot" flag:"state-path"`
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// CORSConfig controls cross-origin access for the browser staff view.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML
// config files, and fills in defaults that depend on the machine.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "POS",
		Files:     []string{"config.yaml", "/etc/pos-terminal/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyDefaults()

	if cfg.APIBaseURL == "" {
		return nil, errors.New("remote API base URL is required: set POS_API_BASE_URL")
	}

	return &cfg, nil
}

// applyDefaults places the order snapshot next to the user's other
// application state when no explicit path is configured.
func (c *Config) applyDefaults() {
	if c.StatePath == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.StatePath = filepath.Join(dir, "pos-terminal", "orders.json")
		} else {
			c.StatePath = "orders.json"
		}
	}
}
