package main

import (
	"log/slog"
	"os"

	"conhash/pkg/cluster"
	"conhash/pkg/config"
)

// initConfig загружает конфиг из YAML/TOML файла. Если файл не найден, возвращается config.Default().
func initConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	// переменные окружения перекрывают файл
	if port := os.Getenv("CONHASH_HTTP_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if servers := os.Getenv("ZK_SERVERS"); servers != "" {
		cfg.ZooKeeper.Enabled = true
		cfg.ZooKeeper.Servers = splitList(servers)
	}
	if self := os.Getenv("CONHASH_NODE_ADDR"); self != "" {
		cfg.ZooKeeper.Self = self
	}
	// CONHASH_PEERS="node1:8080=3,node2:8080" дополняет ring.nodes
	if raw := os.Getenv("CONHASH_PEERS"); raw != "" {
		peers, err := cluster.ParsePeers(raw)
		if err != nil {
			return cfg, err
		}
		if cfg.Ring.Nodes == nil {
			cfg.Ring.Nodes = make(map[string]int, len(peers))
		}
		for _, p := range peers {
			cfg.Ring.Nodes[p.ID] = p.Weight
		}
	}

	return cfg, cfg.Validate()
}

// initLogger настраивает глобальный slog.Logger (JSON или текстовый).
func initLogger(cfg *config.Config) {
	level, err := config.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{AddSource: true, Level: level}

	var handler slog.Handler
	if cfg.Logger.JSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", level.String(), "json", cfg.Logger.JSON)
}
