package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type HTTP struct {
	Addr           string   `yaml:"addr"`
	RequestTimeout string   `yaml:"requestTimeout"` // 15s
	CORSOrigins    []string `yaml:"corsOrigins"`
}

type GRPC struct {
	Addr        string `yaml:"addr"`
	CallTimeout string `yaml:"callTimeout"` // 10s
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // trome-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Storage struct {
	Driver          string `yaml:"driver"` // postgres|sqlite
	DSN             string `yaml:"dsn"`
	MaxConns        int32  `yaml:"maxConns"`
	MinConns        int32  `yaml:"minConns"`
	MaxConnLifetime string `yaml:"maxConnLifetime"`
	MaxConnIdleTime string `yaml:"maxConnIdleTime"`
	AutoMigrate     bool   `yaml:"autoMigrate"`
}

type Membership struct {
	ProfileTimeout             string `yaml:"profileTimeout"`  // 3s
	HeartbeatWindow            string `yaml:"heartbeatWindow"` // 60s
	KeepRecordedModerator      bool   `yaml:"keepRecordedModerator"`
	StripModeratorFromSpeakers *bool  `yaml:"stripModeratorFromSpeakers"` // по умолчанию true
}

// Auth: проверка токенов внешнего провайдера. Пустой PublicKeyPath
// отключает проверку: id пользователя берется из X-User-ID.
type Auth struct {
	PublicKeyPath string `yaml:"publicKeyPath"`
	Issuer        string `yaml:"issuer"`
	Audience      string `yaml:"audience"`
	ClockSkew     string `yaml:"clockSkew"`
}

type Config struct {
	HTTP       HTTP       `yaml:"http"`
	GRPC       GRPC       `yaml:"grpc"`
	Logging    Logging    `yaml:"logging"`
	Storage    Storage    `yaml:"storage"`
	Membership Membership `yaml:"membership"`
	Auth       Auth       `yaml:"auth"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = DriverPostgres
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return errors.New("storage.dsn is required")
	}

	if c.Auth.PublicKeyPath != "" && c.Auth.Issuer == "" {
		return errors.New("auth.issuer is required when auth.publicKeyPath is set")
	}

	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "trome-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Membership.StripModeratorFromSpeakers == nil {
		v := true
		c.Membership.StripModeratorFromSpeakers = &v
	}
	return nil
}

func (h HTTP) RequestTimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, h.RequestTimeout)
}

func (g GRPC) CallTimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, g.CallTimeout)
}

func (s Storage) MaxConnLifetimeOr(def time.Duration) time.Duration {
	return parseDurationOr(def, s.MaxConnLifetime)
}

func (s Storage) MaxConnIdleTimeOr(def time.Duration) time.Duration {
	return parseDurationOr(def, s.MaxConnIdleTime)
}

func (m Membership) ProfileTimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, m.ProfileTimeout)
}

func (m Membership) HeartbeatWindowOr(def time.Duration) time.Duration {
	return parseDurationOr(def, m.HeartbeatWindow)
}

func (a Auth) ClockSkewOr(def time.Duration) time.Duration {
	return parseDurationOr(def, a.ClockSkew)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
