package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"conhash/pkg/cluster"
	"conhash/pkg/nodeorder"
	"conhash/pkg/rpc"
)

func must(err error) {
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func printNodes(label string, ids []string) {
	sorted, err := nodeorder.Numeric(ids)
	must(err)
	fmt.Printf("%s: %v\n", label, sorted)
}

// локальное кольцо: тот же сценарий, что и у клиента ниже
func local() {
	fmt.Println("=== local ring ===")

	ring, err := cluster.New(map[string]int{
		"192.168.0.101:11212": 5,
		"192.168.0.102:11212": 2,
		"192.168.0.103:11212": 1,
	})
	must(err)

	must(ring.AddNodes(map[string]int{"192.168.0.104:11212": 1}))
	printNodes("Current nodes in hash ring", ring.Nodes())

	server, _ := ring.GetNode("my_key")
	fmt.Printf("Server handling 'my_key': %s\n", server)

	must(ring.RemoveNodes([]string{"192.168.0.102:11212", "192.168.0.104:11212"}))
	printNodes("Remaining nodes in hash ring", ring.Nodes())

	dist := ring.Distribution()
	for _, id := range ring.Nodes() {
		fmt.Printf("  %s owns %d positions (weight %d)\n", id, dist[id], ring.Weight(id))
	}
}

func remote(base string) {
	fmt.Printf("\n=== remote ring at %s ===\n", base)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c := rpc.NewRingClient(base)

	_, err := c.AddNodes(ctx, map[string]int{
		"192.168.0.101:11212": 5,
		"192.168.0.102:11212": 2,
		"192.168.0.103:11212": 1,
	})
	must(err)
	_, err = c.AddNodes(ctx, map[string]int{"192.168.0.104:11212": 1})
	must(err)

	nodes, checksum, err := c.Nodes(ctx, false)
	must(err)
	fmt.Printf("Current nodes in hash ring: %v (checksum %s)\n", nodes, checksum)

	loc, ok, err := c.Lookup(ctx, "my_key")
	must(err)
	if ok {
		fmt.Printf("Server handling 'my_key': %s (key %d -> position %d)\n", loc.Node, loc.Key, loc.Position)
	}

	_, err = c.RemoveNodes(ctx, []string{"192.168.0.102:11212", "192.168.0.104:11212"})
	must(err)
	nodes, _, err = c.Nodes(ctx, false)
	must(err)
	fmt.Printf("Remaining nodes in hash ring: %v\n", nodes)
}

func main() {
	local()
	if len(os.Args) > 1 {
		remote(os.Args[1])
	}
}
