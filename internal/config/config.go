package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers understood by the repository layer.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     int
	Log      LogConfig
	Store    StoreConfig
	SQLite   SQLiteConfig
	Database DatabaseConfig
	CORS     CORSConfig
}

type LogConfig struct {
	Level  string
	Pretty bool
}

type StoreConfig struct {
	Driver string
	Path   string // JSON file used by the file driver
}

type SQLiteConfig struct {
	Path string
}

// DatabaseConfig keeps the BLUEPRINT_DB_* variable names used by the
// original Postgres deployment. URL, when set, wins over the individual parts.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	Schema   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// DSN builds the connection string handed to the GORM postgres driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.Username, d.Password, d.Name, d.Port)
	if d.Schema != "" {
		dsn += " search_path=" + d.Schema
	}
	return dsn
}

var envBindings = map[string]string{
	"port":                 "PORT",
	"log.level":            "LOG_LEVEL",
	"log.pretty":           "LOG_PRETTY",
	"store.driver":         "TASKS_STORE_DRIVER",
	"store.path":           "TASKS_STORE_PATH",
	"sqlite.path":          "TASKS_SQLITE_PATH",
	"db.url":               "DATABASE_URL",
	"db.host":              "BLUEPRINT_DB_HOST",
	"db.port":              "BLUEPRINT_DB_PORT",
	"db.username":          "BLUEPRINT_DB_USERNAME",
	"db.password":          "BLUEPRINT_DB_PASSWORD",
	"db.database":          "BLUEPRINT_DB_DATABASE",
	"db.schema":            "BLUEPRINT_DB_SCHEMA",
	"cors.allowed_origins": "CORS_ALLOWED_ORIGINS",
}

// Load reads .env (if present), an optional YAML file named by
// TASKS_CONFIG_FILE, and the environment, in increasing priority.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.path", "database.json")
	v.SetDefault("sqlite.path", "tasks.db")
	v.SetDefault("db.port", "5432")
	v.SetDefault("cors.allowed_origins", []string{"https://*", "http://*"})

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if path := os.Getenv("TASKS_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port: v.GetInt("port"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
			Path:   v.GetString("store.path"),
		},
		SQLite: SQLiteConfig{Path: v.GetString("sqlite.path")},
		Database: DatabaseConfig{
			URL:      v.GetString("db.url"),
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			Username: v.GetString("db.username"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.database"),
			Schema:   v.GetString("db.schema"),
		},
		CORS: CORSConfig{AllowedOrigins: splitList(v.GetStringSlice("cors.allowed_origins"))},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Store.Driver {
	case DriverFile:
		if c.Store.Path == "" {
			return errors.New("store.path must be set for the file driver")
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path must be set for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return errors.New("DATABASE_URL or BLUEPRINT_DB_HOST must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// splitList flattens comma separated entries; env values arrive as one string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
