package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	Port     string
	Host     string
	Protocol string

	DBUsername      string
	DBPassword      string
	DBCluster       string
	DBAppName       string
	MongoURIValue   string
	DBName          string
	ItemsCollection string

	StoreDriver  string
	DataDir      string
	StoreTimeout time.Duration

	LogLevel  string
	LogFormat string

	AllowedOrigins []string
}

// Load reads configuration from an optional .env file in the working directory and
// from the process environment. Environment variables win over the file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(envFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{
		Port:     v.GetString("port"),
		Host:     v.GetString("host"),
		Protocol: v.GetString("protocol"),

		DBUsername:      v.GetString("db_username"),
		DBPassword:      v.GetString("db_password"),
		DBCluster:       v.GetString("db_cluster"),
		DBAppName:       v.GetString("db_app_name"),
		MongoURIValue:   v.GetString("mongo_uri"),
		DBName:          v.GetString("db_name"),
		ItemsCollection: v.GetString("items_collection"),

		StoreDriver: strings.ToLower(v.GetString("store_driver")),
		DataDir:     v.GetString("data_dir"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: strings.ToLower(v.GetString("log_format")),

		AllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
	}

	timeout, err := time.ParseDuration(v.GetString("store_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
	}
	cfg.StoreTimeout = timeout

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("host", "localhost")
	v.SetDefault("protocol", "http")

	v.SetDefault("db_username", "")
	v.SetDefault("db_password", "")
	v.SetDefault("db_cluster", "cluster0.gkaujxr.mongodb.net")
	v.SetDefault("db_app_name", "Cluster0")
	v.SetDefault("mongo_uri", "")
	v.SetDefault("db_name", "simpleItemStore")
	v.SetDefault("items_collection", "items")

	v.SetDefault("store_driver", StoreDriverMongo)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("store_timeout", "10s")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("cors_allowed_origins", "*")
}

// splitList parses a comma separated value, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want %q or %q", c.StoreDriver, StoreDriverMongo, StoreDriverMemory)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: want text or json", c.LogFormat)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("invalid STORE_TIMEOUT %s: must be positive", c.StoreTimeout)
	}
	return nil
}

// MongoURI returns MONGO_URI when set, otherwise an Atlas SRV URI built from the
// credentials and cluster host.
func (c *Config) MongoURI() string {
	if c.MongoURIValue != "" {
		return c.MongoURIValue
	}

	u := url.URL{
		Scheme: "mongodb+srv",
		Host:   c.DBCluster,
		Path:   "/",
	}
	if c.DBUsername != "" {
		u.User = url.UserPassword(c.DBUsername, c.DBPassword)
	}
	if c.DBAppName != "" {
		u.RawQuery = url.Values{"appName": []string{c.DBAppName}}.Encode()
	}
	return u.String()
}

func (c *Config) ListenAddress() string {
	return net.JoinHostPort("", c.Port)
}

// DisplayURL is the address shown in the startup banner.
func (c *Config) DisplayURL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}
