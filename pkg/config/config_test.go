package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ring.Replicas != 10 || cfg.Server.Port != "8080" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_YAML(t *testing.T) {
	p := writeFile(t, "conhash.yaml", `
logger:
  level: debug
  json: true
http-server:
  port: "9090"
  read_header_timeout_ms: 250
ring:
  replicas: 40
  digest: murmur3
  nodes:
    "192.168.0.101:11212": 5
    "192.168.0.102:11212": 2
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Logger.JSON || cfg.Logger.Level != "debug" {
		t.Fatalf("logger = %+v", cfg.Logger)
	}
	if cfg.Server.Port != "9090" || cfg.Server.ReadHeaderTimeout().Milliseconds() != 250 {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Ring.Replicas != 40 || cfg.Ring.Digest != "murmur3" {
		t.Fatalf("ring = %+v", cfg.Ring)
	}
	if cfg.Ring.Nodes["192.168.0.101:11212"] != 5 || cfg.Ring.Nodes["192.168.0.102:11212"] != 2 {
		t.Fatalf("nodes = %v", cfg.Ring.Nodes)
	}
	// секция zookeeper не задана - остаются значения по умолчанию
	if cfg.ZooKeeper.Root != "/conhash" || cfg.ZooKeeper.Enabled {
		t.Fatalf("zookeeper = %+v", cfg.ZooKeeper)
	}
}

func TestLoad_TOML(t *testing.T) {
	p := writeFile(t, "conhash.toml", `
[logger]
level = "WARN"
json = false

[ring]
replicas = 20
digest = "md5"

[ring.nodes]
"10.0.0.1:11211" = 3

[zookeeper]
enabled = true
servers = ["zk1:2181", "zk2:2181"]
root = "/rings/main"
session_timeout_ms = 3000
self = "10.0.0.1:11211"
self_weight = 3
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ring.Replicas != 20 || cfg.Ring.Nodes["10.0.0.1:11211"] != 3 {
		t.Fatalf("ring = %+v", cfg.Ring)
	}
	zk := cfg.ZooKeeper
	if !zk.Enabled || len(zk.Servers) != 2 || zk.Root != "/rings/main" || zk.SessionTimeout().Seconds() != 3 {
		t.Fatalf("zookeeper = %+v", zk)
	}
	if zk.Self != "10.0.0.1:11211" || zk.SelfWeight != 3 {
		t.Fatalf("self = %q/%d", zk.Self, zk.SelfWeight)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("server defaults lost: %+v", cfg.Server)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	p := writeFile(t, "bad.yaml", `
logger:
  level: loud
  json: false
ring:
  replicas: 0
  digest: sha256
  nodes:
    a: 0
zookeeper:
  enabled: true
  servers: []
  root: relative
  session_timeout_ms: 1000
`)
	_, err := Load(p)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, part := range []string{"logger.level", "ring.replicas", "ring.digest", "ring.nodes", "zookeeper.servers", "zookeeper.root"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("error %q does not mention %s", err, part)
		}
	}
}

func TestLoad_Malformed(t *testing.T) {
	if _, err := Load(writeFile(t, "broken.yaml", "ring: [1, 2")); err == nil {
		t.Fatal("expected yaml error")
	}
	if _, err := Load(writeFile(t, "broken.toml", "[ring\nreplicas = ")); err == nil {
		t.Fatal("expected toml error")
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"DEBUG", "info", "Warn", "ERROR"} {
		if _, err := ParseLevel(s); err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
