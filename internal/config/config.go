package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/geo"
)

type Config struct {
	NodeInfo NodeInfo `yaml:"nodeInfo"`
	Server   Server   `yaml:"server"`
	Auth     Auth     `yaml:"auth"`
	Map      Map      `yaml:"map"`
}

type NodeInfo struct {
	FQDN       string `yaml:"fqdn"`
	PolicyPath string `yaml:"policyPath"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	SqlitePath    string `yaml:"sqlitePath"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogLevel      string `yaml:"logLevel"` // debug, info, warn, error
}

type Auth struct {
	JwtSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
}

type Map struct {
	SegmentCount    int     `yaml:"segmentCount"`
	DefaultRadiusKm float64 `yaml:"defaultRadiusKm"`
}

// Load reads path, then lets .env and BIOMAP_* variables override it.
// A missing path is fine when the environment carries everything.
func Load(path string) (Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", slog.String("error", err.Error()), slog.String("module", "config"))
	}

	var config Config
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, errors.Wrapf(err, "failed to decode %s", path)
		}
	case os.IsNotExist(err):
		slog.Info("config file not found, using environment", slog.String("path", path), slog.String("module", "config"))
	default:
		return Config{}, errors.Wrapf(err, "failed to open %s", path)
	}

	config.applyEnv()
	config.applyDefaults()

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	override := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override("BIOMAP_FQDN", &c.NodeInfo.FQDN)
	override("BIOMAP_LISTEN", &c.Server.Listen)
	override("BIOMAP_POSTGRES_DSN", &c.Server.PostgresDsn)
	override("BIOMAP_SQLITE_PATH", &c.Server.SqlitePath)
	override("BIOMAP_REDIS_ADDR", &c.Server.RedisAddr)
	override("BIOMAP_MEMCACHED_ADDR", &c.Server.MemcachedAddr)
	override("BIOMAP_JWT_SECRET", &c.Auth.JwtSecret)
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.NodeInfo.FQDN == "" {
		c.NodeInfo.FQDN = "localhost"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = c.NodeInfo.FQDN
	}
	if c.Map.SegmentCount == 0 {
		c.Map.SegmentCount = geo.DefaultSegmentCount
	}
	if c.Map.DefaultRadiusKm == 0 {
		c.Map.DefaultRadiusKm = domain.DefaultAreaRadiusKm
	}
}

func (c Config) Validate() error {
	if (c.Server.PostgresDsn == "") == (c.Server.SqlitePath == "") {
		return errors.New("exactly one of server.postgresDsn and server.sqlitePath must be set")
	}
	if c.Auth.JwtSecret == "" {
		return errors.New("auth.jwtSecret is required")
	}
	if c.Map.SegmentCount < geo.MinSegmentCount {
		return errors.Errorf("map.segmentCount must be at least %d", geo.MinSegmentCount)
	}
	if c.Map.DefaultRadiusKm < domain.MinAreaRadiusKm || c.Map.DefaultRadiusKm > domain.MaxAreaRadiusKm {
		return errors.Errorf("map.defaultRadiusKm must be between %g and %g", domain.MinAreaRadiusKm, domain.MaxAreaRadiusKm)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.ToLower(c.Server.LogLevel)))
	if err != nil {
		return slog.LevelInfo, errors.Wrap(err, "server.logLevel")
	}
	return level, nil
}

// Domain is the subset the usecases and handlers see.
func (c Config) Domain() domain.Config {
	return domain.Config{
		FQDN:            c.NodeInfo.FQDN,
		Issuer:          c.Auth.Issuer,
		SegmentCount:    c.Map.SegmentCount,
		DefaultRadiusKm: c.Map.DefaultRadiusKm,
	}
}
