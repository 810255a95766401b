package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Node IDs per binary so task ids never collide across processes sharing a queue.
const (
	NodeServer int64 = 1
	NodeWorker int64 = 2
	NodeReplay int64 = 3
)

var (
	node *snowflake.Node
	mu   sync.Mutex
)

// Init initializes the Snowflake node with the given node ID.
// Calling it again replaces the node.
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// New generates a time-ordered task ID. Falls back to node 0 when Init was never called.
func New() int64 {
	mu.Lock()
	if node == nil {
		node, _ = snowflake.NewNode(0)
	}
	n := node
	mu.Unlock()
	return n.Generate().Int64()
}
