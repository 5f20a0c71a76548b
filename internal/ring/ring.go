package ring

import (
	"sort"
	"strconv"
	"sync"

	"evcache/internal/hashring"
)

// DefaultPointsPerNode is used when NewRing is given a non-positive count.
const DefaultPointsPerNode = 160

// Node represents a physical node in the cluster.
type Node struct {
	ID   string
	Addr string
}

// point is one position of a node on the ring.
type point struct {
	hash   uint64
	nodeID string
}

// Ring implements consistent hashing with ketama points.
type Ring struct {
	mu            sync.RWMutex
	algo          hashring.Algorithm
	pointsPerNode int
	points        []point
	nodes         map[string]Node // nodeID -> Node

	// parts is sized once from algo.CountHashParts and reused under mu.
	parts []uint64
}

// NewRing creates a ring that places pointsPerNode points per node using
// algo. pointsPerNode is rounded down to a multiple of the algorithm's part
// count, with at least one round.
func NewRing(algo hashring.Algorithm, pointsPerNode int) *Ring {
	if pointsPerNode <= 0 {
		pointsPerNode = DefaultPointsPerNode
	}
	return &Ring{
		algo:          algo,
		pointsPerNode: pointsPerNode,
		points:        make([]point, 0),
		nodes:         make(map[string]Node),
		parts:         make([]uint64, algo.CountHashParts()),
	}
}

// PointsPerNode returns how many points each node occupies.
func (r *Ring) PointsPerNode() int {
	return r.rounds() * len(r.parts)
}

func (r *Ring) rounds() int {
	n := r.pointsPerNode / len(r.parts)
	if n == 0 {
		n = 1
	}
	return n
}

// SetNodes rebuilds the ring with the given nodes.
// The result does not depend on the order of nodes.
func (r *Ring) SetNodes(nodes []Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes = make(map[string]Node, len(nodes))
	r.points = make([]point, 0, len(nodes)*r.rounds()*len(r.parts))

	for _, node := range nodes {
		if _, exists := r.nodes[node.ID]; exists {
			continue
		}
		r.nodes[node.ID] = node
		r.points = r.appendPoints(r.points, node.ID)
	}

	sortPoints(r.points)
}

// AddNode adds a node to the ring.
func (r *Ring) AddNode(node Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[node.ID]; exists {
		return // already exists
	}

	r.nodes[node.ID] = node
	r.points = r.appendPoints(r.points, node.ID)
	sortPoints(r.points)
}

// RemoveNode removes a node from the ring.
func (r *Ring) RemoveNode(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[nodeID]; !exists {
		return // doesn't exist
	}

	delete(r.nodes, nodeID)
	kept := make([]point, 0, len(r.points))
	for _, p := range r.points {
		if p.nodeID != nodeID {
			kept = append(kept, p)
		}
	}
	r.points = kept
}

// ResponsibleNode returns the node responsible for the given key.
// Returns (Node, true) if found, (Node{}, false) if ring is empty.
func (r *Ring) ResponsibleNode(key string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.points) == 0 {
		return Node{}, false
	}

	node, exists := r.nodes[r.points[r.search(r.algo.Hash(key))].nodeID]
	return node, exists
}

// PreferenceList returns the first k distinct nodes clockwise from the key.
func (r *Ring) PreferenceList(key string, k int) []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.points) == 0 || k <= 0 {
		return []Node{}
	}

	idx := r.search(r.algo.Hash(key))
	seen := make(map[string]bool)
	result := make([]Node, 0, k)

	for i := 0; i < len(r.points) && len(result) < k; i++ {
		nodeID := r.points[(idx+i)%len(r.points)].nodeID
		if !seen[nodeID] {
			seen[nodeID] = true
			if node, exists := r.nodes[nodeID]; exists {
				result = append(result, node)
			}
		}
	}

	return result
}

// GetNodes returns all nodes in the ring, sorted by ID.
func (r *Ring) GetNodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]Node, 0, len(r.nodes))
	for _, node := range r.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// search returns the index of the first point at or after hash, wrapping
// to 0. Caller holds mu and the ring is non-empty.
func (r *Ring) search(hash uint64) int {
	idx := sort.Search(len(r.points), func(i int) bool {
		return r.points[i].hash >= hash
	})
	if idx >= len(r.points) {
		idx = 0
	}
	return idx
}

// appendPoints derives the node's points from "<id>-<round>" keys, one
// point per hash part. Caller holds the write lock.
func (r *Ring) appendPoints(points []point, nodeID string) []point {
	buf := make([]byte, 0, len(nodeID)+8)
	for i := 0; i < r.rounds(); i++ {
		buf = append(buf[:0], nodeID...)
		buf = append(buf, '-')
		buf = strconv.AppendInt(buf, int64(i), 10)

		r.algo.HashPartsInto(string(buf), r.parts)
		for _, h := range r.parts {
			points = append(points, point{hash: h, nodeID: nodeID})
		}
	}
	return points
}

// sortPoints orders points by hash, breaking ties by node ID.
func sortPoints(points []point) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].hash != points[j].hash {
			return points[i].hash < points[j].hash
		}
		return points[i].nodeID < points[j].nodeID
	})
}
