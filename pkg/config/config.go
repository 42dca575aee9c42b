package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// Config - корневая структура конфигурации приложения
type Config struct {
	Logger    LoggerConfig    `yaml:"logger" toml:"logger"`
	Server    ServerConfig    `yaml:"http-server" toml:"http-server"`
	Ring      RingConfig      `yaml:"ring" toml:"ring"`
	ZooKeeper ZooKeeperConfig `yaml:"zookeeper" toml:"zookeeper"`
}

type LoggerConfig struct {
	Level string `yaml:"level" toml:"level"`
	JSON  bool   `yaml:"json" toml:"json"`
}

type ServerConfig struct {
	Port                string `yaml:"port" toml:"port"`
	ReadHeaderTimeoutMs int    `yaml:"read_header_timeout_ms" toml:"read_header_timeout_ms"`
}

// RingConfig describes the ring and the nodes it is seeded with.
type RingConfig struct {
	// Replicas is the number of digests per unit of weight; each digest gives 4 positions.
	Replicas int            `yaml:"replicas" toml:"replicas"`
	Digest   string         `yaml:"digest" toml:"digest"`
	Nodes    map[string]int `yaml:"nodes" toml:"nodes"`
}

type ZooKeeperConfig struct {
	Enabled          bool     `yaml:"enabled" toml:"enabled"`
	Servers          []string `yaml:"servers" toml:"servers"`
	Root             string   `yaml:"root" toml:"root"`
	SessionTimeoutMs int      `yaml:"session_timeout_ms" toml:"session_timeout_ms"`
	// Self is published as this process' own node when non-empty.
	Self       string `yaml:"self" toml:"self"`
	SelfWeight int    `yaml:"self_weight" toml:"self_weight"`
}

// Default returns a baseline development config.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level: "INFO",
			JSON:  false,
		},
		Server: ServerConfig{
			Port:                "8080",
			ReadHeaderTimeoutMs: 1000,
		},
		Ring: RingConfig{
			Replicas: 10,
			Digest:   "md5",
		},
		ZooKeeper: ZooKeeperConfig{
			Root:             "/conhash",
			SessionTimeoutMs: 5000,
			SelfWeight:       1,
		},
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over Default().
// A missing file is not an error: the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("config file not found, using default config", "path", path)
			return cfg, nil
		}
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("decode toml %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode yaml %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error

	if _, err := ParseLevel(c.Logger.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("http-server.port is required"))
	}
	if c.Ring.Replicas < 1 {
		errs = append(errs, fmt.Errorf("ring.replicas must be >= 1, got %d", c.Ring.Replicas))
	}
	switch strings.ToLower(c.Ring.Digest) {
	case "", "md5", "murmur3":
	default:
		errs = append(errs, fmt.Errorf("ring.digest must be md5 or murmur3, got %q", c.Ring.Digest))
	}
	for id, w := range c.Ring.Nodes {
		if id == "" || w < 1 {
			errs = append(errs, fmt.Errorf("ring.nodes: bad node %q with weight %d", id, w))
		}
	}
	if c.ZooKeeper.Enabled {
		if len(c.ZooKeeper.Servers) == 0 {
			errs = append(errs, errors.New("zookeeper.servers is required when zookeeper is enabled"))
		}
		if !strings.HasPrefix(c.ZooKeeper.Root, "/") {
			errs = append(errs, fmt.Errorf("zookeeper.root must be absolute, got %q", c.ZooKeeper.Root))
		}
	}

	return errors.Join(errs...)
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR (any case) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logger.level: %w", err)
	}
	return lvl, nil
}

func (c ServerConfig) ReadHeaderTimeout() time.Duration {
	if c.ReadHeaderTimeoutMs <= 0 {
		return time.Second
	}
	return time.Duration(c.ReadHeaderTimeoutMs) * time.Millisecond
}

func (c ZooKeeperConfig) SessionTimeout() time.Duration {
	if c.SessionTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.SessionTimeoutMs) * time.Millisecond
}
