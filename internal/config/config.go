// Package config loads the TOML configuration file consumed by the
// logger and query binaries. Command-line flags override individual
// values after loading; the core packages only ever see explicit
// parameters.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	GPS      GPS      `mapstructure:"gps"`
	Files    Files    `mapstructure:"files"`
	Database Database `mapstructure:"database"`
	Logging  Logging  `mapstructure:"logging"`
}

type GPS struct {
	Port     string `mapstructure:"port"`
	Baudrate int    `mapstructure:"baudrate"`
	// Timeout is the serial read timeout in seconds.
	Timeout int `mapstructure:"timeout"`
}

// ReadTimeout returns the serial read timeout as a duration.
func (g GPS) ReadTimeout() time.Duration {
	return time.Duration(g.Timeout) * time.Second
}

type Files struct {
	CSVFilename string `mapstructure:"csv_filename"`
	DBFilename  string `mapstructure:"db_filename"`
}

type Database struct {
	TableName string `mapstructure:"table_name"`
}

type Logging struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Load reads the TOML file at path. A missing or unparsable file is an
// error; the caller treats it as fatal.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("gps.port", "/dev/ttyUSB0")
	v.SetDefault("gps.baudrate", 9600)
	v.SetDefault("gps.timeout", 5)
	v.SetDefault("files.csv_filename", "gps_data.csv")
	v.SetDefault("files.db_filename", "gps_data.db")
	v.SetDefault("database.table_name", "gps_data")
	v.SetDefault("logging.file", "gps.log")
	v.SetDefault("logging.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.GPS.Port == "" {
		return fmt.Errorf("gps.port is required")
	}
	if c.GPS.Baudrate <= 0 {
		return fmt.Errorf("gps.baudrate must be positive, got %d", c.GPS.Baudrate)
	}
	if c.GPS.Timeout <= 0 {
		return fmt.Errorf("gps.timeout must be positive, got %d", c.GPS.Timeout)
	}
	if c.Files.CSVFilename == "" {
		return fmt.Errorf("files.csv_filename is required")
	}
	if c.Files.DBFilename == "" {
		return fmt.Errorf("files.db_filename is required")
	}
	if c.Database.TableName == "" {
		return fmt.Errorf("database.table_name is required")
	}
	return nil
}
