package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	apihttp "conhash/internal/http"
	"conhash/pkg/cluster"
	"conhash/pkg/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	defaultPath := os.Getenv("CONHASH_CONFIG")
	if defaultPath == "" {
		defaultPath = "conhash.yaml"
	}
	configPath := flag.String("config", defaultPath, "path to YAML or TOML config")
	flag.Parse()

	cfg, err := initConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	initLogger(&cfg)

	if err := run(ctx, cfg); err != nil {
		slog.Error("conhash stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("conhash stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	digest, err := cluster.DigestByName(cfg.Ring.Digest)
	if err != nil {
		return err
	}
	opts := []cluster.Option{cluster.WithReplicas(cfg.Ring.Replicas), cluster.WithDigest(digest)}

	ring, err := cluster.New(cfg.Ring.Nodes, opts...)
	if err != nil {
		return fmt.Errorf("build ring: %w", err)
	}
	router := cluster.NewRouter(ring)
	slog.Info("ring built", "nodes", ring.NodesCount(), "positions", ring.Len(), "digest", cfg.Ring.Digest)

	// --- ZooKeeper membership ---
	if cfg.ZooKeeper.Enabled {
		membership, err := cluster.NewZKMembership(cfg.ZooKeeper.Servers, cfg.ZooKeeper.Root, cfg.ZooKeeper.SessionTimeout())
		if err != nil {
			return fmt.Errorf("connect to ZooKeeper: %w", err)
		}
		defer membership.Close()

		if cfg.ZooKeeper.Self != "" {
			self := cluster.Node{ID: cfg.ZooKeeper.Self, Weight: cfg.ZooKeeper.SelfWeight}
			if err := membership.Register(ctx, self); err != nil {
				return fmt.Errorf("register in ZooKeeper: %w", err)
			}
		}
		// watcher обновляет кольцо при изменении состава нод в ZK
		membership.RunWatch(ctx, router)
	}

	server := apihttp.NewServer(router, cfg.Server.Port)
	server.SetReadHeaderTimeout(cfg.Server.ReadHeaderTimeout())
	if err := server.Start(); err != nil {
		return err
	}

	<-ctx.Done()

	return server.Stop()
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
