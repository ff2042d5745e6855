// Package config loads server configuration from a YAML file, environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/stevemurr/storefront-server/model"
)

// Config represents the server configuration.
type Config struct {
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Store struct {
		Backend         string        `yaml:"backend"`
		DataDir         string        `yaml:"data_dir"`
		DatabaseURL     string        `yaml:"database_url"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	} `yaml:"store"`
	Products struct {
		Model    string `yaml:"model"`
		Seed     bool   `yaml:"seed"`
		SeedFile string `yaml:"seed_file"`
	} `yaml:"products"`
	Users struct {
		Seed bool `yaml:"seed"`
	} `yaml:"users"`
	Upstream struct {
		FoxURL      string        `yaml:"fox_url"`
		ProductsURL string        `yaml:"products_url"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"upstream"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	c := &Config{}
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8000
	c.Server.AllowedOrigins = []string{"*"}
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Store.Backend = "memory"
	c.Store.DataDir = "./data"
	c.Store.MaxOpenConns = 10
	c.Store.MaxIdleConns = 5
	c.Store.ConnMaxLifetime = 30 * time.Minute
	c.Products.Model = model.ProductModelFakeStore
	c.Products.Seed = true
	c.Users.Seed = true
	c.Upstream.FoxURL = "https://randomfox.ca/floof/"
	c.Upstream.ProductsURL = "https://fakestoreapi.com/products"
	c.Upstream.Timeout = 10 * time.Second
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// Load builds a Config from defaults, the optional YAML file at path and
// environment variables. Call Validate (or Flags.Apply) before use.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func (c *Config) applyEnv() error {
	var err error
	c.Server.Host = env("HOST", c.Server.Host)
	if c.Server.Port, err = envInt("PORT", c.Server.Port); err != nil {
		return err
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
	c.Store.Backend = env("STORE_BACKEND", c.Store.Backend)
	c.Store.DataDir = env("DATA_DIR", c.Store.DataDir)
	c.Store.DatabaseURL = env("DATABASE_URL", c.Store.DatabaseURL)
	if c.Store.MaxOpenConns, err = envInt("DB_MAX_OPEN_CONNS", c.Store.MaxOpenConns); err != nil {
		return err
	}
	c.Products.Model = env("PRODUCT_MODEL", c.Products.Model)
	c.Products.SeedFile = env("PRODUCT_SEED_FILE", c.Products.SeedFile)
	if c.Products.Seed, err = envBool("SEED_PRODUCTS", c.Products.Seed); err != nil {
		return err
	}
	if c.Users.Seed, err = envBool("SEED_USERS", c.Users.Seed); err != nil {
		return err
	}
	c.Upstream.FoxURL = env("FOX_API_URL", c.Upstream.FoxURL)
	c.Upstream.ProductsURL = env("PRODUCTS_API_URL", c.Upstream.ProductsURL)
	c.Log.Level = env("LOG_LEVEL", c.Log.Level)
	c.Log.Format = env("LOG_FORMAT", c.Log.Format)
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "json", "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store backend postgres requires a database url (DATABASE_URL)")
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}
	if _, err := model.ProductModel(c.Products.Model); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	return nil
}

// NewLogger builds the process logger from the log section.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetLevel(level)
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Flags holds the command-line overrides registered on a FlagSet.
type Flags struct {
	fs          *pflag.FlagSet
	configPath  string
	host        string
	port        int
	backend     string
	dataDir     string
	databaseURL string
	model       string
	logLevel    string
}

// RegisterFlags adds the server's flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.configPath, "config", "c", os.Getenv("CONFIG_FILE"), "path to YAML configuration file")
	fs.StringVar(&f.host, "host", "", "listen host")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port")
	fs.StringVar(&f.backend, "store-backend", "", "product store backend (memory, json, sqlite, postgres)")
	fs.StringVar(&f.dataDir, "data-dir", "", "directory for json and sqlite backends")
	fs.StringVar(&f.databaseURL, "database-url", "", "database connection string")
	fs.StringVar(&f.model, "product-model", "", "product model (fakestore, catalog)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level")
	return f
}

// ConfigPath returns the --config value.
func (f *Flags) ConfigPath() string {
	return f.configPath
}

// Apply copies every flag that was set explicitly onto c and re-validates.
func (f *Flags) Apply(c *Config) error {
	if f.fs.Changed("host") {
		c.Server.Host = f.host
	}
	if f.fs.Changed("port") {
		c.Server.Port = f.port
	}
	if f.fs.Changed("store-backend") {
		c.Store.Backend = f.backend
	}
	if f.fs.Changed("data-dir") {
		c.Store.DataDir = f.dataDir
	}
	if f.fs.Changed("database-url") {
		c.Store.DatabaseURL = f.databaseURL
	}
	if f.fs.Changed("product-model") {
		c.Products.Model = f.model
	}
	if f.fs.Changed("log-level") {
		c.Log.Level = f.logLevel
	}
	return c.Validate()
}
