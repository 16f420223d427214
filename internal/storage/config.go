package storage

import (
	"fmt"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config defines fields used for choosing and connecting to a storage backend, parsed from environment variables
type Config struct {
	Driver     string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	User       string `env:"DB_USER" envDefault:"postgres"`
	Password   string `env:"DB_PASSWORD"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       uint16 `env:"DB_PORT" envDefault:"5432"`
	DBName     string `env:"DB_NAME" envDefault:"messages"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"messages.db"`
}

// DSN returns connection string for postgres in key=value form
func (c Config) DSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%d dbname=%s sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}
