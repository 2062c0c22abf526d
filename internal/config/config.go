package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Log holds the settings shared by all commands for logging.
type Log struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // text or json
}

// Database holds the connection parameters of the MySQL database.
type Database struct {
	Host     string `env:"DBHOST" envDefault:"localhost:3306"`
	User     string `env:"DBUSER" envDefault:"root"`
	Password string `env:"DBPWD"`
	Name     string `env:"DBNAME" envDefault:"test"`
}

// DSN returns the data source name for the MySQL driver. clientFoundRows makes UPDATE report
// matched rows instead of changed rows, so an update with unchanged values is not a "not found".
func (d Database) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?clientFoundRows=true", d.User, d.Password, d.Host, d.Name)
}

// Service is the configuration of the persons REST service.
type Service struct {
	Port       int    `env:"PORT"        envDefault:"8080"`
	GinLogging string `env:"GIN_LOGGING" envDefault:"on"`
	Database   Database
	Log        Log
}

// Client is the configuration of the console client.
type Client struct {
	APIRoot     string        `env:"PERSONS_API_ROOT"     envDefault:"http://localhost:8080"`
	HTTPTimeout time.Duration `env:"PERSONS_HTTP_TIMEOUT" envDefault:"0s"`
	Locale      string        `env:"LOCALE"               envDefault:"en"`
	Log         Log
}

// envFiles are loaded in this order if they exist. Variables already set in the environment win.
var envFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads the existing files from envFiles into the process environment.
func LoadEnvFiles() error {
	var existing []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Migration is the configuration of the migration command.
type Migration struct {
	Database Database
	Log      Log
}

// parse loads the env files and fills cfg from the environment.
func parse[T any]() (T, error) {
	var cfg T
	if err := LoadEnvFiles(); err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadService reads the service configuration from the environment.
func LoadService() (Service, error) {
	cfg, err := parse[Service]()
	if err != nil {
		return Service{}, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Service{}, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	return cfg, nil
}

// LoadClient reads the client configuration from the environment.
func LoadClient() (Client, error) {
	return parse[Client]()
}

// LoadMigration reads the migration configuration from the environment.
func LoadMigration() (Migration, error) {
	return parse[Migration]()
}
