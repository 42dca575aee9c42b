package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

// zkConn is the subset of *zk.Conn used by ZKMembership.
type zkConn interface {
	Exists(path string) (bool, *zk.Stat, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	Get(path string) ([]byte, *zk.Stat, error)
	Children(path string) ([]string, *zk.Stat, error)
	ChildrenW(path string) ([]string, *zk.Stat, <-chan zk.Event, error)
	State() zk.State
	Close()
}

// ZKMembership reads the node set from ZooKeeper. Every node publishes an
// ephemeral znode <root>/nodes/<id> whose data is its decimal weight.
type ZKMembership struct {
	conn     zkConn
	rootPath string

	retryDelay time.Duration
}

// servers: ["zk1:2181", "zk2:2181"]
func NewZKMembership(servers []string, rootPath string, sessionTimeout time.Duration) (*ZKMembership, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("zk connect: %w", err)
	}
	return newZKMembership(conn, rootPath), nil
}

func newZKMembership(conn zkConn, rootPath string) *ZKMembership {
	return &ZKMembership{
		conn:       conn,
		rootPath:   rootPath,
		retryDelay: 2 * time.Second,
	}
}

func (m *ZKMembership) Close() error {
	m.conn.Close()
	return nil
}

func (m *ZKMembership) nodesPath() string {
	return path.Join(m.rootPath, "nodes")
}

func (m *ZKMembership) ensurePath(p string) error {
	cur := ""
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		cur = cur + "/" + part
		exists, _, err := m.conn.Exists(cur)
		if err != nil {
			return err
		}
		if !exists {
			_, err = m.conn.Create(cur, nil, 0, zk.WorldACL(zk.PermAll))
			if err != nil && !errors.Is(err, zk.ErrNodeExists) {
				return err
			}
		}
	}
	return nil
}

// Register publishes n as an ephemeral znode that disappears with the session.
func (m *ZKMembership) Register(ctx context.Context, n Node) error {
	if n.ID == "" || n.ID == "." || n.ID == ".." || strings.Contains(n.ID, "/") {
		return fmt.Errorf("zk: bad node id %q", n.ID)
	}
	if err := m.waitConnected(ctx); err != nil {
		return err
	}
	if err := m.ensurePath(m.nodesPath()); err != nil {
		return fmt.Errorf("ensure nodes path: %w", err)
	}

	weight := n.Weight
	if weight <= 0 {
		weight = 1
	}
	nodePath := path.Join(m.nodesPath(), n.ID)
	_, err := m.conn.Create(nodePath, []byte(strconv.Itoa(weight)), zk.FlagEphemeral, zk.WorldACL(zk.PermAll))
	if err != nil && !errors.Is(err, zk.ErrNodeExists) {
		return fmt.Errorf("create ephemeral node: %w", err)
	}

	slog.Info("zk node registered", "path", nodePath, "weight", weight)
	return nil
}

// ReadNodes lists the published nodes with their weights.
func (m *ZKMembership) ReadNodes() ([]Node, error) {
	children, _, err := m.conn.Children(m.nodesPath())
	if err != nil {
		return nil, fmt.Errorf("zk children: %w", err)
	}
	return m.resolve(children)
}

// resolve reads the weight of every child. A child that vanished in between is skipped.
func (m *ZKMembership) resolve(children []string) ([]Node, error) {
	nodes := make([]Node, 0, len(children))
	for _, id := range children {
		data, _, err := m.conn.Get(path.Join(m.nodesPath(), id))
		if errors.Is(err, zk.ErrNoNode) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("zk get %s: %w", id, err)
		}
		nodes = append(nodes, Node{ID: id, Weight: parseWeight(id, data)})
	}
	return nodes, nil
}

func parseWeight(id string, data []byte) int {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 1
	}
	w, err := strconv.Atoi(s)
	if err != nil || w < 1 || w > MaxWeight {
		slog.Warn("zk node has bad weight, using 1", "node", id, "data", s)
		return 1
	}
	return w
}

// BuildRing builds a ring from the current node list.
func (m *ZKMembership) BuildRing(opts ...Option) (*HashRing, error) {
	nodes, err := m.ReadNodes()
	if err != nil {
		return nil, err
	}
	ring := NewHashRing(opts...)
	if err := ring.Add(nodes...); err != nil {
		return nil, err
	}
	return ring, nil
}

// RunWatch keeps r in sync with the published node list until ctx is done.
func (m *ZKMembership) RunWatch(ctx context.Context, r *Router) {
	go func() {
		for {
			children, _, ch, err := m.conn.ChildrenW(m.nodesPath())
			if err == nil {
				var nodes []Node
				nodes, err = m.resolve(children)
				if err == nil {
					_, _, err = r.Sync(nodes)
				}
			}
			if err != nil {
				slog.Warn("zk watch failed", "error", err)
				select {
				case <-time.After(m.retryDelay):
					continue
				case <-ctx.Done():
					slog.Info("zk watch stopped")
					return
				}
			}

			select {
			case ev := <-ch:
				slog.Debug("zk event", "type", ev.Type.String(), "path", ev.Path)
			case <-ctx.Done():
				slog.Info("zk watch stopped")
				return
			}
		}
	}()
}

func (m *ZKMembership) waitConnected(ctx context.Context) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		st := m.conn.State()
		if st == zk.StateConnected || st == zk.StateHasSession {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("zk: not connected, state=%v: %w", st, ctx.Err())
		case <-ticker.C:
		}
	}
}
